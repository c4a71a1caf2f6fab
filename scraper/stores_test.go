package scraper

import "testing"

func TestClassifyStore(t *testing.T) {
	tests := []struct {
		url           string
		wantName      string
		wantDifficult bool
	}{
		{"https://www.mercadolivre.com.br/produto/MLB-123", "Mercado Livre", false},
		{"https://shopee.com.br/iphone-15-i.123.456", "Shopee", true},
		{"https://www.amazon.com.br/dp/B0ABC123", "Amazon", false},
		{"https://www.amazon.com/dp/B0ABC123", "Amazon", false},
		{"https://www.americanas.com.br/produto/123", "Americanas", true},
		{"https://produto.magazineluiza.com.br/tv-55", "Magazine Luiza", false},
		{"https://www.kabum.com.br/produto/98765", "KaBuM!", false},
		{"https://pt.aliexpress.com/item/100500.html", "AliExpress", true},
	}

	for _, tt := range tests {
		got := ClassifyStore(tt.url)
		if got.Name != tt.wantName {
			t.Errorf("ClassifyStore(%q).Name = %q, want %q", tt.url, got.Name, tt.wantName)
		}
		if got.IsDifficult != tt.wantDifficult {
			t.Errorf("ClassifyStore(%q).IsDifficult = %v, want %v", tt.url, got.IsDifficult, tt.wantDifficult)
		}
	}
}

func TestClassifyStoreUnknownDomain(t *testing.T) {
	got := ClassifyStore("https://www.lojadesconhecida.com.br/produto/1")
	if got.Name != "Lojadesconhecida" {
		t.Errorf("expected capitalized first label, got %q", got.Name)
	}
	if got.IsDifficult {
		t.Error("unknown stores must not be flagged difficult")
	}
}

func TestClassifyStoreMalformedURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "://broken"} {
		got := ClassifyStore(raw)
		if got.Name != "Loja Online" {
			t.Errorf("ClassifyStore(%q) = %q, want fallback name", raw, got.Name)
		}
	}
}

func TestClassifyStoreLongestSuffixWins(t *testing.T) {
	// amazon.com.br must beat amazon.com for Brazilian URLs.
	got := ClassifyStore("https://www.amazon.com.br/gp/product/B0X")
	if got.Name != "Amazon" {
		t.Fatalf("got %q", got.Name)
	}
	// A subdomain of a known store still classifies.
	got = ClassifyStore("https://m.shopee.com.br/product/1/2")
	if got.Name != "Shopee" || !got.IsDifficult {
		t.Errorf("subdomain classification failed: %+v", got)
	}
}
