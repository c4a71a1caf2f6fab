package scraper

import (
	"net/url"
	"strings"

	"pechincha/models"
)

// fallbackStoreName is shown when the URL cannot be parsed at all.
const fallbackStoreName = "Loja Online"

// knownStores maps domain suffixes to retailer info. Matching is
// longest-suffix-wins, so shopee.com.br takes precedence over any shorter
// suffix that also happens to be contained in the hostname.
var knownStores = map[string]models.StoreInfo{
	"mercadolivre.com.br":  {Name: "Mercado Livre", IsDifficult: false},
	"amazon.com.br":        {Name: "Amazon", IsDifficult: false},
	"amazon.com":           {Name: "Amazon", IsDifficult: false},
	"americanas.com.br":    {Name: "Americanas", IsDifficult: true},
	"magazineluiza.com.br": {Name: "Magazine Luiza", IsDifficult: false},
	"magalu.com.br":        {Name: "Magazine Luiza", IsDifficult: false},
	"casasbahia.com.br":    {Name: "Casas Bahia", IsDifficult: true},
	"pontofrio.com.br":     {Name: "Ponto Frio", IsDifficult: true},
	"extra.com.br":         {Name: "Extra", IsDifficult: true},
	"shopee.com.br":        {Name: "Shopee", IsDifficult: true},
	"aliexpress.com":       {Name: "AliExpress", IsDifficult: true},
	"shein.com":            {Name: "Shein", IsDifficult: true},
	"kabum.com.br":         {Name: "KaBuM!", IsDifficult: false},
	"submarino.com.br":     {Name: "Submarino", IsDifficult: true},
	"netshoes.com.br":      {Name: "Netshoes", IsDifficult: false},
	"centauro.com.br":      {Name: "Centauro", IsDifficult: false},
	"fastshop.com.br":      {Name: "Fast Shop", IsDifficult: false},
	"carrefour.com.br":     {Name: "Carrefour", IsDifficult: false},
	"leroymerlin.com.br":   {Name: "Leroy Merlin", IsDifficult: false},
	"sephora.com.br":       {Name: "Sephora", IsDifficult: false},
	"nike.com.br":          {Name: "Nike", IsDifficult: true},
	"adidas.com.br":        {Name: "Adidas", IsDifficult: true},
}

// ClassifyStore maps a product URL to a retailer. It never fails: unknown
// domains get a capitalized first label, unparseable URLs get a generic name.
func ClassifyStore(rawURL string) models.StoreInfo {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return models.StoreInfo{Name: fallbackStoreName, IsDifficult: false}
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	// Longest matching suffix wins so subdomain overlaps resolve
	// deterministically.
	var best string
	for suffix := range knownStores {
		if strings.Contains(host, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}
	if best != "" {
		return knownStores[best]
	}

	// Unknown retailer: capitalize the first hostname label.
	label := host
	if i := strings.Index(host, "."); i > 0 {
		label = host[:i]
	}
	if label == "" {
		return models.StoreInfo{Name: fallbackStoreName, IsDifficult: false}
	}
	return models.StoreInfo{Name: strings.ToUpper(label[:1]) + label[1:], IsDifficult: false}
}
