package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"pechincha/config"
)

// ShopeeAffiliate rewrites Shopee product URLs to carry affiliate tracking
// parameters. All transformations fail closed: a URL that cannot be parsed,
// or incomplete configuration, returns the input unchanged.
type ShopeeAffiliate struct {
	cfg config.AffiliateConfig
}

// NewShopeeAffiliate creates the affiliate rewriter.
func NewShopeeAffiliate(cfg config.AffiliateConfig) *ShopeeAffiliate {
	return &ShopeeAffiliate{cfg: cfg}
}

// IsMatch reports whether the URL belongs to the Shopee affiliate program.
func (a *ShopeeAffiliate) IsMatch(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), "shopee")
}

// StripQuery removes the query string and fragment from a URL.
func (a *ShopeeAffiliate) StripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// AddAffiliateParams clears any existing query string and sets the configured
// tracking parameters. Applying it twice yields the same URL.
func (a *ShopeeAffiliate) AddAffiliateParams(rawURL string) string {
	if !a.cfg.IsComplete() {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := url.Values{}
	q.Set("pid", a.cfg.PartnerID)
	q.Set("af_siteid", a.cfg.SiteID)
	q.Set("af_sub_siteid", a.cfg.SubID)
	q.Set("af_click_lookback", fmt.Sprintf("%dd", a.cfg.ClickLookbackDays))
	q.Set("af_viewthrough_lookback", fmt.Sprintf("%dd", a.cfg.ViewThroughLookbackDays))

	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// Rewrite applies the affiliate transformation when the URL matches.
func (a *ShopeeAffiliate) Rewrite(rawURL string) string {
	if !a.IsMatch(rawURL) {
		return rawURL
	}
	return a.AddAffiliateParams(rawURL)
}
