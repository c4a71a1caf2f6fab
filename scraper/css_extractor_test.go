package scraper

import (
	"testing"

	"pechincha/models"
)

func cssRequest(html string) *ExtractionRequest {
	return &ExtractionRequest{
		URL:   "https://loja.com/produto/smartphone-teste",
		HTML:  html,
		Store: models.StoreInfo{Name: "Loja"},
	}
}

func TestCSSExtractorMicrodata(t *testing.T) {
	html := `<html><head>
	<meta property="og:image" content="https://cdn.loja.com/foto.jpg">
	<meta name="description" content="Smartphone com 256GB de armazenamento">
	</head><body>
	<h1 itemprop="name">Smartphone Galaxy S24 256GB</h1>
	<span itemprop="price" content="3499.00">R$ 3.499,00</span>
	<del class="original-price">R$ 3.999,00</del>
	</body></html>`

	product, err := NewCSSExtractor().Extract(cssRequest(html))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if product.Name != "Smartphone Galaxy S24 256GB" {
		t.Errorf("name = %q", product.Name)
	}
	if product.Price == nil || *product.Price != 3499.00 {
		t.Errorf("price = %v, want 3499", product.Price)
	}
	if product.OriginalPrice == nil || *product.OriginalPrice != 3999.00 {
		t.Errorf("original price = %v, want 3999", product.OriginalPrice)
	}
	if product.ImageURL != "https://cdn.loja.com/foto.jpg" {
		t.Errorf("image = %q", product.ImageURL)
	}
	if product.Description != "Smartphone com 256GB de armazenamento" {
		t.Errorf("description = %q", product.Description)
	}
	if product.Source != "css" {
		t.Errorf("source = %q", product.Source)
	}
	if product.Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %q", product.Confidence)
	}
}

func TestCSSExtractorBrazilianPriceText(t *testing.T) {
	html := `<html><body>
	<h1 class="product-title">Tênis de Corrida</h1>
	<div class="price">R$ 1.299,90</div>
	</body></html>`

	product, err := NewCSSExtractor().Extract(cssRequest(html))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if product.Price == nil || *product.Price != 1299.90 {
		t.Errorf("price = %v, want 1299.90", product.Price)
	}
}

func TestCSSExtractorFallsBackToURLName(t *testing.T) {
	product, err := NewCSSExtractor().Extract(cssRequest("<html><body><p>nada aqui</p></body></html>"))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if product.Name != "Smartphone Teste" {
		t.Errorf("name = %q, want URL-derived name", product.Name)
	}
	if product.Price != nil {
		t.Errorf("price should be nil, got %v", *product.Price)
	}
}
