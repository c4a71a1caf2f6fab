package scraper

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"R$ 1.234,56", 1234.56, true},
		{"R$ 99,90", 99.90, true},
		{"1234.56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"R$ 10", 10, true},
		{"por apenas R$ 2.499,00 à vista", 2499.00, true},
		{"19,9", 19.9, true},
		{"", 0, false},
		{"grátis", 0, false},
		{"R$ 0,00", 0, false},
		{"R$ 1.500.000,00", 0, false},
		{"-50", 50, true}, // sign is stripped with the currency symbol
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://loja.com/produto/smartphone-galaxy-s24-ultra", "Smartphone Galaxy S24 Ultra"},
		{"https://loja.com/tenis_corrida_masculino/p", "Tenis Corrida Masculino"},
		{"https://loja.com/notebook-gamer.html", "Notebook Gamer"},
		{"https://loja.com/dp/123456789", "Produto"},
		{"https://loja.com/", "Produto"},
		{"https://www.amazon.com.br/Echo-Dot-5a-geracao/dp/B09B8VN8YQ", "Echo Dot 5a Geracao"},
	}

	for _, tt := range tests {
		if got := NameFromURL(tt.url); got != tt.want {
			t.Errorf("NameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNameFromURLCapsLength(t *testing.T) {
	long := "https://loja.com/um-nome-de-produto-extremamente-longo-que-vai-muito-alem-do-limite-de-oitenta-caracteres-imposto-pelo-derivador"
	name := NameFromURL(long)
	if len(name) > 80 {
		t.Errorf("derived name has %d chars, cap is 80", len(name))
	}
	if name == "Produto" {
		t.Error("long segment should still produce a real name")
	}
}
