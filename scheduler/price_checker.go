package scheduler

import (
	"log"
	"time"

	"pechincha/models"
	"pechincha/repository"
	"pechincha/scraper"
	"pechincha/services"

	"github.com/robfig/cron/v3"
)

type PriceChecker struct {
	cron          *cron.Cron
	productRepo   *repository.ProductRepository
	cascade       *scraper.Cascade
	history       services.HistoryStore
	notifications services.NotificationStore
	cache         services.KeyValueStore
	checkAge      time.Duration
}

func NewPriceChecker(
	cascade *scraper.Cascade,
	history services.HistoryStore,
	notifications services.NotificationStore,
	cache services.KeyValueStore,
) *PriceChecker {
	return &PriceChecker{
		cron:          cron.New(cron.WithSeconds()),
		productRepo:   repository.NewProductRepository(),
		cascade:       cascade,
		history:       history,
		notifications: notifications,
		cache:         cache,
		checkAge:      12 * time.Hour,
	}
}

// Start starts the scheduled price checking
func (pc *PriceChecker) Start() {
	// Re-check stale products every 12 hours (at 00:00 and 12:00)
	if _, err := pc.cron.AddFunc("0 0 */12 * * *", pc.checkAllPrices); err != nil {
		log.Printf("Failed to schedule price checker: %v", err)
		return
	}

	// Retry failed checks on their backoff schedule
	if _, err := pc.cron.AddFunc("0 */10 * * * *", pc.retryFailedChecks); err != nil {
		log.Printf("Failed to schedule retry pass: %v", err)
		return
	}

	// Sweep expired cache entries
	if _, err := pc.cron.AddFunc("0 */10 * * * *", pc.cache.Cleanup); err != nil {
		log.Printf("Failed to schedule cache cleanup: %v", err)
		return
	}

	// Drop notifications older than the retention window, daily
	if _, err := pc.cron.AddFunc("0 0 3 * * *", func() {
		pc.notifications.Sweep(0)
	}); err != nil {
		log.Printf("Failed to schedule notification cleanup: %v", err)
		return
	}

	// Also run immediately on startup
	go pc.checkAllPrices()

	pc.cron.Start()
	log.Println("Price checker scheduled to run every 12 hours")
}

// Stop stops the scheduled price checking
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// checkAllPrices re-extracts every product whose last check is stale
func (pc *PriceChecker) checkAllPrices() {
	log.Println("Starting scheduled price check for tracked products")

	products, err := pc.productRepo.GetProductsToCheck(pc.checkAge)
	if err != nil {
		log.Printf("Failed to get products to check: %v", err)
		return
	}

	if len(products) == 0 {
		log.Println("No products to check")
		return
	}

	log.Printf("Checking prices for %d products", len(products))

	for _, product := range products {
		go pc.checkProductPrice(product)
	}
}

// retryFailedChecks re-attempts products whose backoff has elapsed
func (pc *PriceChecker) retryFailedChecks() {
	products, err := pc.productRepo.GetProductsForRetry()
	if err != nil {
		log.Printf("Failed to get products for retry: %v", err)
		return
	}
	if len(products) == 0 {
		return
	}

	log.Printf("Retrying %d failed product checks", len(products))
	for _, product := range products {
		go pc.checkProductPrice(product)
	}
}

// checkProductPrice re-runs the extraction cascade for one product
func (pc *PriceChecker) checkProductPrice(product models.TrackedProduct) {
	log.Printf("Checking price for: %s (%s)", product.Name, product.URL)

	// A cached extraction would return the price we already have.
	pc.cache.Delete("product:" + product.URL)

	scraped, err := pc.cascade.Extract(product.URL)
	if err != nil {
		log.Printf("Failed to extract %s: %v", product.URL, err)
		pc.markFailed(product)
		return
	}
	if !scraped.HasPrice() {
		log.Printf("No price found for %s, scheduling retry", product.Name)
		pc.markFailed(product)
		return
	}

	oldPrice := product.GetCurrentPrice()
	newPrice := scraped.PriceValue()

	if err := pc.productRepo.UpdatePrice(product.ID, scraped.Price); err != nil {
		log.Printf("Failed to update price for %s: %v", product.URL, err)
		return
	}

	recorded := pc.history.Record(models.PriceHistoryEntry{
		ProductID: product.ID,
		Price:     newPrice,
		Timestamp: time.Now(),
		Source:    scraped.Source,
	})
	if recorded {
		if err := pc.productRepo.RecordObservation(product.ID, newPrice, scraped.Source); err != nil {
			log.Printf("Failed to record observation for %s: %v", product.URL, err)
		}
	}

	if oldPrice != newPrice {
		if newPrice < oldPrice {
			log.Printf("📉 Price DROPPED for %s: R$ %.2f → R$ %.2f", product.Name, oldPrice, newPrice)
		} else {
			log.Printf("📈 Price INCREASED for %s: R$ %.2f → R$ %.2f", product.Name, oldPrice, newPrice)
		}
		pc.notifications.CheckPriceChange(product.ID, oldPrice, newPrice)
	}
}

func (pc *PriceChecker) markFailed(product models.TrackedProduct) {
	if err := pc.productRepo.MarkCheckFailed(&product); err != nil {
		log.Printf("Failed to mark check failed for %s: %v", product.URL, err)
	}
}

// ManualCheck allows manual triggering of price checks
func (pc *PriceChecker) ManualCheck() {
	log.Println("Manual price check triggered")
	pc.checkAllPrices()
}
