package scraper

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"pechincha/models"
	"pechincha/services"
)

// ExtractionRequest carries the page state through the strategy chain.
// HTML is empty until the fetch step populates it.
type ExtractionRequest struct {
	URL   string
	HTML  string
	Store models.StoreInfo
}

// Strategy is one rung of the extraction ladder. Extract may return a
// partial product; the cascade decides whether it clears the validity bar.
type Strategy interface {
	Name() string
	Available() bool
	Extract(req *ExtractionRequest) (*models.ScrapedProduct, error)
}

// Cascade runs extraction strategies from most to least capable and stops
// at the first usable result. Every URL produces a product: when all
// strategies fail, a placeholder built from the URL is returned.
type Cascade struct {
	fetcher    *Fetcher
	crawl      *CrawlExtractor
	llm        *LLMExtractor
	css        *CSSExtractor
	botwall    *BotWallDetector
	screenshot *ScreenshotCapturer
	vision     *VisionExtractor
	cache      services.KeyValueStore
	cacheTTL   time.Duration
}

// NewCascade wires the strategy chain. Any strategy may be nil or
// unavailable; the chain skips it.
func NewCascade(
	fetcher *Fetcher,
	crawl *CrawlExtractor,
	llm *LLMExtractor,
	css *CSSExtractor,
	screenshot *ScreenshotCapturer,
	vision *VisionExtractor,
	cache services.KeyValueStore,
	cacheTTL time.Duration,
) *Cascade {
	return &Cascade{
		fetcher:    fetcher,
		crawl:      crawl,
		llm:        llm,
		css:        css,
		botwall:    NewBotWallDetector(),
		screenshot: screenshot,
		vision:     vision,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// Usable reports whether a strategy result clears the validity bar: a
// real product name at least 3 characters long that is not the generic
// store placeholder.
func Usable(product *models.ScrapedProduct, store models.StoreInfo) bool {
	if product == nil {
		return false
	}
	name := strings.TrimSpace(product.Name)
	if utf8.RuneCountInString(name) < 3 {
		return false
	}
	if name == "Produto de "+store.Name {
		return false
	}
	return true
}

// Extract resolves a URL to product data. Results are cached by URL so
// repeat submissions of the same product skip the expensive strategies.
func (c *Cascade) Extract(url string) (*models.ScrapedProduct, error) {
	cacheKey := "product:" + url

	if c.cache != nil {
		if data, found := c.cache.Get(cacheKey); found {
			var cached models.ScrapedProduct
			if err := json.Unmarshal(data, &cached); err == nil {
				log.Printf("⚡ Cache hit for %s", url)
				return &cached, nil
			}
		}
	}

	store := ClassifyStore(url)
	req := &ExtractionRequest{URL: url, Store: store}

	product := c.run(req)
	if product == nil {
		product = c.placeholder(req)
	}

	if c.cache != nil {
		if data, err := json.Marshal(product); err == nil {
			c.cache.Set(cacheKey, data, c.cacheTTL)
		}
	}
	return product, nil
}

// run walks the ladder and returns the first usable result, or nil.
func (c *Cascade) run(req *ExtractionRequest) *models.ScrapedProduct {
	// Difficult stores go straight to the rendering provider; a plain
	// fetch would hit their bot wall anyway.
	if req.Store.IsDifficult && c.crawl != nil && c.crawl.Available() {
		if product := c.try(c.crawl, req); product != nil {
			return product
		}
	}

	html, err := c.fetcher.Fetch(req.URL)
	if err != nil {
		log.Printf("⚠️ Fetch failed for %s: %v", req.URL, err)
		// Even ordinary stores sometimes need rendering when the plain
		// fetch is refused.
		if !req.Store.IsDifficult && c.crawl != nil && c.crawl.Available() {
			if product := c.try(c.crawl, req); product != nil {
				return product
			}
		}
		return nil
	}
	req.HTML = html

	if isWall, reason, score := c.botwall.Detect(html); isWall {
		log.Printf("🧱 Bot wall detected on %s (%s, score %.2f)", req.Store.Name, reason, score)
		if product := c.tryVision(req); product != nil {
			return product
		}
		if c.crawl != nil && c.crawl.Available() && !req.Store.IsDifficult {
			if product := c.try(c.crawl, req); product != nil {
				return product
			}
		}
		return nil
	}

	if c.llm != nil && c.llm.Available() {
		if product := c.try(c.llm, req); product != nil {
			return product
		}
	}
	if product := c.try(c.css, req); product != nil {
		return product
	}
	return nil
}

func (c *Cascade) try(strategy Strategy, req *ExtractionRequest) *models.ScrapedProduct {
	product, err := strategy.Extract(req)
	if err != nil {
		log.Printf("⚠️ Strategy %s failed for %s: %v", strategy.Name(), req.URL, err)
		return nil
	}
	if !Usable(product, req.Store) {
		log.Printf("⚠️ Strategy %s returned unusable result for %s", strategy.Name(), req.URL)
		return nil
	}
	log.Printf("✅ Extracted via %s: %q", strategy.Name(), product.Name)
	return product
}

// tryVision photographs the page and reads it with the multimodal model.
func (c *Cascade) tryVision(req *ExtractionRequest) *models.ScrapedProduct {
	if c.screenshot == nil || !c.screenshot.Available() || c.vision == nil || !c.vision.Available() {
		return nil
	}
	image, err := c.screenshot.Capture(req.URL)
	if err != nil {
		log.Printf("⚠️ Screenshot capture failed for %s: %v", req.URL, err)
		return nil
	}
	product, err := c.vision.ExtractFromImage(image, "image/png", req.Store.Name)
	if err != nil {
		log.Printf("⚠️ Vision extraction failed for %s: %v", req.URL, err)
		return nil
	}
	if !Usable(product, req.Store) {
		return nil
	}
	log.Printf("✅ Extracted via vision: %q", product.Name)
	return product
}

// placeholder builds the last-resort product from the URL alone. It always
// succeeds so a tracked product row can exist and be retried later.
func (c *Cascade) placeholder(req *ExtractionRequest) *models.ScrapedProduct {
	name := NameFromURL(req.URL)
	if name == "Produto" {
		name = "Produto de " + req.Store.Name
	}

	return &models.ScrapedProduct{
		Name:        name,
		Price:       nil,
		ImageURL:    fmt.Sprintf("https://placehold.co/400x400?text=%s", strings.ReplaceAll(req.Store.Name, " ", "+")),
		Store:       req.Store.Name,
		Description: "Produto adicionado para monitoramento. Verifique os dados manualmente.",
		Category:    "Outros",
		Source:      "fallback",
		Confidence:  models.ConfidenceLow,
	}
}
