package scraper

import (
	"testing"

	"pechincha/config"
)

func TestParseLLMProduct(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantName string
		wantErr  bool
	}{
		{
			name:     "plain JSON",
			raw:      `{"name": "Monitor 27 Polegadas", "price": 1199.90, "store": "KaBuM!"}`,
			wantName: "Monitor 27 Polegadas",
		},
		{
			name: "markdown fenced",
			raw: "```json\n" +
				`{"name": "Teclado Mecânico", "price": 349.90}` +
				"\n```",
			wantName: "Teclado Mecânico",
		},
		{
			name:     "surrounding prose",
			raw:      `Here is the extracted data: {"name": "Mouse Gamer", "price": null} Hope this helps!`,
			wantName: "Mouse Gamer",
		},
		{
			name:    "no JSON at all",
			raw:     "I could not find any product on this page.",
			wantErr: true,
		},
		{
			name:    "broken JSON",
			raw:     `{"name": "Incompleto", "price": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseLLMProduct(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.Name != tt.wantName {
				t.Errorf("name = %q, want %q", parsed.Name, tt.wantName)
			}
		})
	}
}

func TestParseLLMProductNullPrice(t *testing.T) {
	parsed, err := parseLLMProduct(`{"name": "Produto Sem Preço", "price": null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Price != nil {
		t.Errorf("price = %v, want nil", *parsed.Price)
	}
}

func TestLLMExtractorUnavailableWithoutProviders(t *testing.T) {
	e := NewLLMExtractor(config.OpenAIConfig{}, nil)
	if e.Available() {
		t.Error("extractor with no providers must not be available")
	}
}
