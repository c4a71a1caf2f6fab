package scraper

import (
	"strings"
	"testing"
)

func TestDetectCaptchaPage(t *testing.T) {
	bd := NewBotWallDetector()

	page := `<html><body><h1>Security check</h1>
	<p>Please verify you are human</p>
	<div class="g-recaptcha"></div></body></html>`

	isWall, reason, score := bd.Detect(page)
	if !isWall {
		t.Fatalf("CAPTCHA interstitial not detected (score %.2f)", score)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
	if score > 1.0 {
		t.Errorf("score must be capped at 1.0, got %.2f", score)
	}
}

func TestDetectCleanProductPage(t *testing.T) {
	bd := NewBotWallDetector()

	page := `<html><head><title>Smartphone Galaxy S24</title></head><body>
	<h1 itemprop="name">Smartphone Galaxy S24 256GB</h1>
	<span itemprop="price" content="3499.00">R$ 3.499,00</span>
	<p>Entrega para todo o Brasil.</p>` + strings.Repeat("<p>descrição detalhada do produto</p>\n", 50) + `
	</body></html>`

	if isWall, reason, score := bd.Detect(page); isWall {
		t.Errorf("clean page flagged as wall: %s (score %.2f)", reason, score)
	}
}

func TestDetectShortBlockPage(t *testing.T) {
	bd := NewBotWallDetector()

	isWall, _, score := bd.Detect("403 Forbidden")
	if !isWall {
		t.Fatalf("short block page not detected (score %.2f)", score)
	}
}
