package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Confidence tiers reported by every extraction strategy so downstream
// consumers can make uniform trust decisions.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ScrapedProduct is the canonical result of the extraction cascade.
// Price fields are nil when the strategy could not determine them.
type ScrapedProduct struct {
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	ImageURL      string   `json:"image_url,omitempty"`
	Store         string   `json:"store"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Source        string   `json:"source"`     // "anycrawl", "openai", "gemini", "css", "vision", "placeholder"
	Confidence    string   `json:"confidence"` // high, medium, low
}

// HasPrice returns true when the cascade found a usable price.
func (p *ScrapedProduct) HasPrice() bool {
	return p.Price != nil && *p.Price > 0
}

// PriceValue returns the price as float64, or 0 when unknown.
func (p *ScrapedProduct) PriceValue() float64 {
	if p.Price != nil {
		return *p.Price
	}
	return 0
}

// StoreInfo is static reference data about a retailer.
type StoreInfo struct {
	Name        string `json:"name"`
	IsDifficult bool   `json:"is_difficult"` // JS-rendered storefront, plain fetch usually fails
}

// PriceHistoryEntry is one immutable price observation in the ledger.
type PriceHistoryEntry struct {
	ProductID int       `json:"product_id"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// PriceVariation compares the two most recent ledger entries.
type PriceVariation struct {
	Percentage float64 `json:"percentage"`
	Trend      string  `json:"trend"` // "up", "down", "stable"
}

// Notification rule types.
const (
	RulePriceDrop   = "price_drop"
	RulePriceRise   = "price_rise"
	RuleBackInStock = "back_in_stock"
)

// NotificationRule watches one product on behalf of one user. Rules are keyed
// by (UserID, ProductID, Type); re-adding overwrites.
type NotificationRule struct {
	UserID    int      `json:"user_id"`
	ProductID int      `json:"product_id"`
	Type      string   `json:"type"`
	Threshold *float64 `json:"threshold,omitempty"` // percent; nil means any change fires
	Active    bool     `json:"active"`
}

// Notification is an alert emitted by the notification engine.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	ProductID int       `json:"product_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// TrackedProduct is a persisted product row the scheduler re-checks.
type TrackedProduct struct {
	ID           int             `json:"id" db:"id"`
	URL          string          `json:"url" db:"url"`
	Name         string          `json:"name" db:"name"`
	Store        string          `json:"store" db:"store"`
	CurrentPrice sql.NullFloat64 `json:"-" db:"current_price"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	Category     string          `json:"category" db:"category"`
	LastChecked  *time.Time      `json:"last_checked" db:"last_checked"`
	LastFailedAt *time.Time      `json:"last_failed_at" db:"last_failed_at"`
	RetryCount   int             `json:"retry_count" db:"retry_count"`
	NextRetryAt  *time.Time      `json:"next_retry_at" db:"next_retry_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	IsActive     bool            `json:"is_active" db:"is_active"`
}

// HasPrice returns true if the product has a known current price.
func (t *TrackedProduct) HasPrice() bool {
	return t.CurrentPrice.Valid
}

// GetCurrentPrice returns the current price as float64, or 0 if NULL.
func (t *TrackedProduct) GetCurrentPrice() float64 {
	if t.CurrentPrice.Valid {
		return t.CurrentPrice.Float64
	}
	return 0.0
}

// CanRetry returns true if a failed check may be retried now.
func (t *TrackedProduct) CanRetry() bool {
	if t.NextRetryAt == nil {
		return true
	}
	return time.Now().After(*t.NextRetryAt)
}

// ShouldRetry returns true if the product has failed checks pending retry.
func (t *TrackedProduct) ShouldRetry() bool {
	return t.LastFailedAt != nil && t.CanRetry() && t.RetryCount < 5
}

// GetRetryDelay returns the backoff before the next retry.
func (t *TrackedProduct) GetRetryDelay() time.Duration {
	switch t.RetryCount {
	case 0:
		return 10 * time.Minute
	case 1:
		return 30 * time.Minute
	case 2:
		return 1 * time.Hour
	case 3:
		return 3 * time.Hour
	case 4:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// MarshalJSON flattens the nullable price for API consumers.
func (t *TrackedProduct) MarshalJSON() ([]byte, error) {
	type Alias TrackedProduct
	return json.Marshal(&struct {
		*Alias
		CurrentPrice *float64 `json:"current_price"`
	}{
		Alias:        (*Alias)(t),
		CurrentPrice: t.currentPricePtr(),
	})
}

func (t *TrackedProduct) currentPricePtr() *float64 {
	if t.CurrentPrice.Valid {
		price := t.CurrentPrice.Float64
		return &price
	}
	return nil
}

// AddProductRequest is the payload for submitting a product URL.
type AddProductRequest struct {
	URL string `json:"url"`
}

// SetRuleRequest is the payload for creating a notification rule.
type SetRuleRequest struct {
	UserID    int      `json:"user_id"`
	Type      string   `json:"type"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// VisionExtractRequest carries a base64 screenshot for the vision path.
type VisionExtractRequest struct {
	ImageBase64 string `json:"image_base64"`
	URL         string `json:"url,omitempty"` // used for store classification when present
}

// ExtractResponse wraps a cascade result together with ledger context.
type ExtractResponse struct {
	Product   *ScrapedProduct `json:"product"`
	ProductID int             `json:"product_id,omitempty"`
	Variation *PriceVariation `json:"variation,omitempty"`
}
