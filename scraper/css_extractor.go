package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pechincha/models"
)

// Per-field selector lists, in priority order. The first non-empty match
// wins; the lists move from structured data (microdata, test ids) down to
// class-name guesswork.
var (
	nameSelectors = []string{
		"[itemprop='name']",
		"h1[data-testid*='title']",
		"[data-testid*='title']",
		"h1.product-title",
		"h1.product-name",
		"h1",
		"title",
	}

	priceSelectors = []string{
		"[itemprop='price']",
		"[data-testid*='price']",
		".price",
		".product-price",
		".sale-price",
		".current-price",
		"[class*='price']",
	}

	originalPriceSelectors = []string{
		"[data-testid*='original']",
		".original-price",
		".list-price",
		"[class*='original']",
		"del",
		"s",
	}

	imageSelectors = []string{
		"meta[property='og:image']",
		"[itemprop='image']",
		"[data-testid*='image'] img",
		".product-image img",
		"img[class*='product']",
	}

	descriptionSelectors = []string{
		"meta[name='description']",
		"[itemprop='description']",
		"[class*='description']",
	}
)

// CSSExtractor parses the fetched HTML with prioritized selector heuristics.
// It never reports a hard failure: the name falls back to the URL segment
// heuristic, which always succeeds.
type CSSExtractor struct{}

// NewCSSExtractor creates the CSS heuristic strategy.
func NewCSSExtractor() *CSSExtractor {
	return &CSSExtractor{}
}

// Name identifies the strategy in logs and product sources.
func (e *CSSExtractor) Name() string { return "css" }

// Available is always true: the CSS pass needs no external provider.
func (e *CSSExtractor) Available() bool { return true }

// Extract applies the selector heuristics to req.HTML.
func (e *CSSExtractor) Extract(req *ExtractionRequest) (*models.ScrapedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	product := &models.ScrapedProduct{
		Store:      req.Store.Name,
		Source:     e.Name(),
		Confidence: models.ConfidenceMedium,
	}

	product.Name = firstText(doc, nameSelectors)
	if product.Name == "" {
		product.Name = NameFromURL(req.URL)
	}

	if priceText := firstPriceText(doc, priceSelectors); priceText != "" {
		if price, ok := ParsePrice(priceText); ok {
			product.Price = &price
		}
	}
	if origText := firstPriceText(doc, originalPriceSelectors); origText != "" {
		if orig, ok := ParsePrice(origText); ok {
			product.OriginalPrice = &orig
		}
	}

	product.ImageURL = firstAttr(doc, imageSelectors)
	product.Description = firstContent(doc, descriptionSelectors)

	return product, nil
}

// firstText returns the first selector's trimmed text.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			return text
		}
	}
	return ""
}

// firstPriceText prefers the microdata content attribute over element text.
func firstPriceText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
			return content
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr resolves image selectors, which may be meta tags or img elements.
func firstAttr(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range []string{"content", "src", "data-src"} {
			if val, ok := node.Attr(attr); ok && strings.TrimSpace(val) != "" {
				return strings.TrimSpace(val)
			}
		}
	}
	return ""
}

// firstContent resolves description selectors (meta content or text).
func firstContent(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return strings.Join(strings.Fields(text), " ")
		}
	}
	return ""
}
