package services

import (
	"testing"
	"time"

	"pechincha/models"
)

func entry(productID int, price float64, at time.Time) models.PriceHistoryEntry {
	return models.PriceHistoryEntry{ProductID: productID, Price: price, Timestamp: at, Source: "css"}
}

func TestHistoryRecordAndOrder(t *testing.T) {
	h := NewMemoryHistory()
	base := time.Now()

	h.Record(entry(1, 100, base))
	h.Record(entry(1, 90, base.Add(time.Hour)))
	h.Record(entry(1, 95, base.Add(2*time.Hour)))

	got := h.History(1)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Price != 100 || got[2].Price != 95 {
		t.Errorf("history out of order: %v", got)
	}

	latest, ok := h.Latest(1)
	if !ok || latest.Price != 95 {
		t.Errorf("Latest = %v, %v", latest, ok)
	}
}

func TestHistoryDedupConsecutiveEqualPrices(t *testing.T) {
	h := NewMemoryHistory()
	base := time.Now()

	if !h.Record(entry(1, 100, base)) {
		t.Fatal("first observation must be stored")
	}
	if h.Record(entry(1, 100, base.Add(time.Hour))) {
		t.Error("repeat of the same price must be dropped")
	}
	if !h.Record(entry(1, 90, base.Add(2*time.Hour))) {
		t.Error("changed price must be stored")
	}
	// Same price again after an intervening change is a new observation.
	if !h.Record(entry(1, 100, base.Add(3*time.Hour))) {
		t.Error("price returning to an earlier value must be stored")
	}

	if got := h.History(1); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	// The dropped repeat must not disturb the original timestamp.
	if got := h.History(1); !got[0].Timestamp.Equal(base) {
		t.Errorf("first timestamp changed to %v", got[0].Timestamp)
	}
}

func TestHistoryCapsAtHundredEntries(t *testing.T) {
	h := NewMemoryHistory()
	base := time.Now()

	for i := 0; i < 101; i++ {
		h.Record(entry(1, float64(i+1), base.Add(time.Duration(i)*time.Minute)))
	}

	got := h.History(1)
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	// Oldest entry (price 1) is evicted; price 2 is now first.
	if got[0].Price != 2 {
		t.Errorf("oldest surviving price = %v, want 2", got[0].Price)
	}
	if got[99].Price != 101 {
		t.Errorf("newest price = %v, want 101", got[99].Price)
	}
}

func TestHistoryVariation(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name      string
		prices    []float64
		wantPct   float64
		wantTrend string
	}{
		{"no entries", nil, 0, "stable"},
		{"single entry", []float64{100}, 0, "stable"},
		{"drop", []float64{100, 80}, 20, "down"},
		{"rise", []float64{100, 110}, 10, "up"},
		{"within one percent", []float64{100, 100.5}, 0.5, "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMemoryHistory()
			for i, p := range tt.prices {
				h.Record(entry(1, p, base.Add(time.Duration(i)*time.Minute)))
			}
			v := h.Variation(1)
			if v.Trend != tt.wantTrend {
				t.Errorf("trend = %q, want %q", v.Trend, tt.wantTrend)
			}
			if diff := v.Percentage - tt.wantPct; diff > 0.0001 || diff < -0.0001 {
				t.Errorf("percentage = %v, want %v", v.Percentage, tt.wantPct)
			}
		})
	}
}

func TestHistoryRecentChanges(t *testing.T) {
	h := NewMemoryHistory()
	base := time.Now()

	h.Record(entry(1, 100, base.Add(-2*time.Hour)))
	h.Record(entry(1, 90, base.Add(-10*time.Minute)))
	h.Record(entry(2, 50, base.Add(-5*time.Minute)))

	got := h.RecentChanges(1, time.Hour)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
	if len(got) == 1 && got[0].Price != 90 {
		t.Errorf("price = %v, want the recent observation", got[0].Price)
	}
	if len(h.RecentChanges(3, time.Hour)) != 0 {
		t.Error("unknown product should have no recent changes")
	}
}

func TestHistoryLowestHighest(t *testing.T) {
	h := NewMemoryHistory()
	base := time.Now()

	if _, ok := h.LowestPrice(1); ok {
		t.Error("empty ledger reported a lowest price")
	}

	for i, p := range []float64{100, 80, 120, 95} {
		h.Record(entry(1, p, base.Add(time.Duration(i)*time.Minute)))
	}

	if low, _ := h.LowestPrice(1); low != 80 {
		t.Errorf("lowest = %v, want 80", low)
	}
	if high, _ := h.HighestPrice(1); high != 120 {
		t.Errorf("highest = %v, want 120", high)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewMemoryHistory()
	h.Record(entry(1, 100, time.Now()))
	h.Clear(1)
	if len(h.History(1)) != 0 {
		t.Error("Clear did not drop the ledger")
	}
}
