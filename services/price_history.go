package services

import (
	"sync"
	"time"

	"pechincha/models"
)

const maxHistoryEntries = 100

// HistoryStore is the price ledger contract. Multi-instance deployments can
// swap in a shared backend; the default is the in-memory MemoryHistory.
type HistoryStore interface {
	Record(entry models.PriceHistoryEntry) bool
	History(productID int) []models.PriceHistoryEntry
	Latest(productID int) (models.PriceHistoryEntry, bool)
	LowestPrice(productID int) (float64, bool)
	HighestPrice(productID int) (float64, bool)
	Variation(productID int) models.PriceVariation
	RecentChanges(productID int, window time.Duration) []models.PriceHistoryEntry
	Clear(productID int)
}

// MemoryHistory is the in-memory price ledger. Each product keeps its most
// recent observations in order, oldest first, capped at maxHistoryEntries.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries map[int][]models.PriceHistoryEntry
}

// NewMemoryHistory creates an empty ledger.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		entries: make(map[int][]models.PriceHistoryEntry),
	}
}

// Record appends an observation. Consecutive observations with the exact
// same price are collapsed into one: the repeat is dropped and the original
// timestamp stands. Returns true when the entry was stored.
func (h *MemoryHistory) Record(entry models.PriceHistoryEntry) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	history := h.entries[entry.ProductID]
	if len(history) > 0 && history[len(history)-1].Price == entry.Price {
		return false
	}

	history = append(history, entry)
	if len(history) > maxHistoryEntries {
		history = history[len(history)-maxHistoryEntries:]
	}
	h.entries[entry.ProductID] = history
	return true
}

// History returns a copy of the product's observations, oldest first.
func (h *MemoryHistory) History(productID int) []models.PriceHistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.entries[productID]
	out := make([]models.PriceHistoryEntry, len(history))
	copy(out, history)
	return out
}

// Latest returns the most recent observation.
func (h *MemoryHistory) Latest(productID int) (models.PriceHistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.entries[productID]
	if len(history) == 0 {
		return models.PriceHistoryEntry{}, false
	}
	return history[len(history)-1], true
}

// LowestPrice returns the cheapest recorded observation.
func (h *MemoryHistory) LowestPrice(productID int) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.entries[productID]
	if len(history) == 0 {
		return 0, false
	}
	lowest := history[0].Price
	for _, entry := range history[1:] {
		if entry.Price < lowest {
			lowest = entry.Price
		}
	}
	return lowest, true
}

// HighestPrice returns the most expensive recorded observation.
func (h *MemoryHistory) HighestPrice(productID int) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.entries[productID]
	if len(history) == 0 {
		return 0, false
	}
	highest := history[0].Price
	for _, entry := range history[1:] {
		if entry.Price > highest {
			highest = entry.Price
		}
	}
	return highest, true
}

// Variation compares the two most recent observations. The percentage is
// the absolute movement; the trend carries the direction, with movements
// within ±1% counting as stable. Fewer than two observations is stable.
func (h *MemoryHistory) Variation(productID int) models.PriceVariation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.entries[productID]
	if len(history) < 2 {
		return models.PriceVariation{Percentage: 0, Trend: "stable"}
	}

	previous := history[len(history)-2].Price
	latest := history[len(history)-1].Price
	if previous <= 0 {
		return models.PriceVariation{Percentage: 0, Trend: "stable"}
	}

	delta := (latest - previous) / previous * 100
	trend := "stable"
	if delta > 1 {
		trend = "up"
	} else if delta < -1 {
		trend = "down"
	}
	pct := delta
	if pct < 0 {
		pct = -pct
	}
	return models.PriceVariation{Percentage: pct, Trend: trend}
}

// RecentChanges returns the product's observations within the window,
// oldest first.
func (h *MemoryHistory) RecentChanges(productID int, window time.Duration) []models.PriceHistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	var out []models.PriceHistoryEntry
	for _, entry := range h.entries[productID] {
		if entry.Timestamp.After(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}

// Clear drops a product's ledger, used when tracking stops.
func (h *MemoryHistory) Clear(productID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, productID)
}
