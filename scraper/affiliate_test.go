package scraper

import (
	"net/url"
	"testing"

	"pechincha/config"
)

func affiliateConfig() config.AffiliateConfig {
	return config.AffiliateConfig{
		PartnerID:               "12345",
		SiteID:                  "site-1",
		SubID:                   "pechincha",
		ClickLookbackDays:       7,
		ViewThroughLookbackDays: 1,
	}
}

func TestAddAffiliateParams(t *testing.T) {
	a := NewShopeeAffiliate(affiliateConfig())

	got := a.AddAffiliateParams("https://shopee.com.br/iphone-15-i.123.456?sp_atk=abc")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("rewritten URL does not parse: %v", err)
	}

	q := u.Query()
	want := map[string]string{
		"pid":                     "12345",
		"af_siteid":               "site-1",
		"af_sub_siteid":           "pechincha",
		"af_click_lookback":       "7d",
		"af_viewthrough_lookback": "1d",
	}
	for key, val := range want {
		if q.Get(key) != val {
			t.Errorf("param %s = %q, want %q", key, q.Get(key), val)
		}
	}
	if q.Get("sp_atk") != "" {
		t.Error("pre-existing query params must be cleared")
	}
}

func TestAddAffiliateParamsIdempotent(t *testing.T) {
	a := NewShopeeAffiliate(affiliateConfig())

	once := a.AddAffiliateParams("https://shopee.com.br/produto-i.1.2")
	twice := a.AddAffiliateParams(once)
	if once != twice {
		t.Errorf("rewrite is not idempotent:\n once: %s\ntwice: %s", once, twice)
	}
}

func TestAddAffiliateParamsFailsClosed(t *testing.T) {
	a := NewShopeeAffiliate(config.AffiliateConfig{SubID: "pechincha"})

	in := "https://shopee.com.br/produto-i.1.2?keep=me"
	if got := a.AddAffiliateParams(in); got != in {
		t.Errorf("incomplete config must leave URL untouched, got %s", got)
	}
}

func TestRewriteNonShopeeUnchanged(t *testing.T) {
	a := NewShopeeAffiliate(affiliateConfig())

	in := "https://www.amazon.com.br/dp/B0ABC?tag=other"
	if got := a.Rewrite(in); got != in {
		t.Errorf("non-Shopee URL must pass through, got %s", got)
	}
}

func TestIsMatch(t *testing.T) {
	a := NewShopeeAffiliate(affiliateConfig())

	if !a.IsMatch("https://shopee.com.br/x") {
		t.Error("shopee.com.br should match")
	}
	if !a.IsMatch("https://br.shopee.com/x") {
		t.Error("shopee subdomains should match")
	}
	if a.IsMatch("https://www.mercadolivre.com.br/x") {
		t.Error("non-shopee host matched")
	}
}

func TestStripQuery(t *testing.T) {
	a := NewShopeeAffiliate(affiliateConfig())

	got := a.StripQuery("https://shopee.com.br/produto-i.1.2?utm_source=x#frag")
	if got != "https://shopee.com.br/produto-i.1.2" {
		t.Errorf("StripQuery = %s", got)
	}
}
