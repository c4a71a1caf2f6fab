package scraper

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pechincha/models"
)

// CrawlExtractor is the premium strategy for difficult stores. It renders
// the page through the crawl provider and mines the result: structured
// metadata first, then the rendered HTML through the language model when
// the metadata alone is not enough, with the selector heuristics as the
// last gap-filler.
type CrawlExtractor struct {
	client *AnyCrawlClient
	llm    *LLMExtractor
	css    *CSSExtractor
}

// NewCrawlExtractor creates the premium crawl strategy. llm may be nil.
func NewCrawlExtractor(client *AnyCrawlClient, llm *LLMExtractor) *CrawlExtractor {
	return &CrawlExtractor{
		client: client,
		llm:    llm,
		css:    NewCSSExtractor(),
	}
}

// Name identifies the strategy in logs and product sources.
func (c *CrawlExtractor) Name() string { return "crawl" }

// Available reports whether the crawl provider is configured.
func (c *CrawlExtractor) Available() bool {
	return c.client != nil && c.client.Available()
}

// Extract renders the page remotely and builds a product from the result.
func (c *CrawlExtractor) Extract(req *ExtractionRequest) (*models.ScrapedProduct, error) {
	result, err := c.client.Scrape(req.URL)
	if err != nil {
		return nil, err
	}

	product := &models.ScrapedProduct{
		Store:      req.Store.Name,
		Source:     c.Name(),
		Confidence: models.ConfidenceHigh,
	}

	product.Name = strings.TrimSpace(metadataValue(result.Metadata, "og:title", "twitter:title"))
	if product.Name == "" {
		product.Name = strings.TrimSpace(result.Title)
	}
	product.ImageURL = metadataValue(result.Metadata, "og:image", "twitter:image")
	product.Description = result.Description
	if product.Description == "" {
		product.Description = metadataValue(result.Metadata, "og:description", "description")
	}

	if priceText := metadataValue(result.Metadata, "product:price:amount", "og:price:amount"); priceText != "" {
		if price, ok := ParsePrice(priceText); ok {
			product.Price = &price
		}
	}

	// Metadata alone was not enough; hand the rendered HTML to the
	// language model before falling back to selector heuristics.
	if !Usable(product, req.Store) && result.HTML != "" && c.llm != nil && c.llm.Available() {
		llmReq := &ExtractionRequest{URL: req.URL, HTML: result.HTML, Store: req.Store}
		if fromLLM, llmErr := c.llm.Extract(llmReq); llmErr != nil {
			log.Printf("⚠️ LLM pass over rendered HTML failed for %s: %v", req.URL, llmErr)
		} else if Usable(fromLLM, req.Store) {
			if fromLLM.ImageURL == "" {
				fromLLM.ImageURL = product.ImageURL
			}
			if fromLLM.Description == "" {
				fromLLM.Description = product.Description
			}
			log.Printf("🕷️ Crawl extraction for %s resolved via LLM: %q", req.Store.Name, fromLLM.Name)
			return fromLLM, nil
		}
	}

	// Fill gaps from the rendered HTML.
	if result.HTML != "" && (product.Name == "" || product.Price == nil || product.ImageURL == "") {
		if doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(result.HTML)); docErr == nil {
			if product.Name == "" {
				product.Name = firstText(doc, nameSelectors)
			}
			if product.Price == nil {
				if priceText := firstPriceText(doc, priceSelectors); priceText != "" {
					if price, ok := ParsePrice(priceText); ok {
						product.Price = &price
					}
				}
			}
			if product.ImageURL == "" {
				product.ImageURL = firstAttr(doc, imageSelectors)
			}
			if product.OriginalPrice == nil {
				if origText := firstPriceText(doc, originalPriceSelectors); origText != "" {
					if orig, ok := ParsePrice(origText); ok {
						product.OriginalPrice = &orig
					}
				}
			}
		}
	}

	log.Printf("🕷️ Crawl extraction for %s: name=%q hasPrice=%v", req.Store.Name, product.Name, product.Price != nil)
	return product, nil
}

// metadataValue returns the first non-empty metadata key.
func metadataValue(metadata map[string]string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(metadata[key]); val != "" {
			return val
		}
	}
	return ""
}
