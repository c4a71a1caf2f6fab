package services

import (
	"strings"
	"testing"
	"time"

	"pechincha/models"
)

func dropRule(userID, productID int, threshold float64) models.NotificationRule {
	return models.NotificationRule{
		UserID:    userID,
		ProductID: productID,
		Type:      models.RulePriceDrop,
		Threshold: &threshold,
		Active:    true,
	}
}

func TestPriceDropThreshold(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 10))

	// 5% drop stays below the 10% threshold.
	if fired := e.CheckPriceChange(10, 100, 95); len(fired) != 0 {
		t.Errorf("5%% drop fired %d notifications", len(fired))
	}

	// 15% drop clears it.
	fired := e.CheckPriceChange(10, 100, 85)
	if len(fired) != 1 {
		t.Fatalf("15%% drop fired %d notifications, want 1", len(fired))
	}

	n := fired[0]
	if n.Type != models.RulePriceDrop || n.UserID != 1 || n.ProductID != 10 {
		t.Errorf("unexpected notification: %+v", n)
	}
	if !strings.Contains(n.Message, "15%") {
		t.Errorf("message should carry the rounded percentage: %q", n.Message)
	}
	if !strings.Contains(n.Message, "100.00") || !strings.Contains(n.Message, "85.00") {
		t.Errorf("message should carry both prices: %q", n.Message)
	}
}

func TestPriceRiseRule(t *testing.T) {
	e := NewNotificationEngine()
	threshold := 5.0
	e.AddRule(models.NotificationRule{
		UserID: 1, ProductID: 10, Type: models.RulePriceRise, Threshold: &threshold, Active: true,
	})

	if fired := e.CheckPriceChange(10, 100, 103); len(fired) != 0 {
		t.Error("3% rise should not fire a 5% rule")
	}
	if fired := e.CheckPriceChange(10, 100, 110); len(fired) != 1 {
		t.Errorf("10%% rise fired %d notifications", len(fired))
	}
	// A drop never fires a rise rule.
	if fired := e.CheckPriceChange(10, 100, 50); len(fired) != 0 {
		t.Error("drop fired a rise rule")
	}
}

func TestBackInStockRule(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(models.NotificationRule{
		UserID: 1, ProductID: 10, Type: models.RuleBackInStock, Active: true,
	})

	fired := e.CheckPriceChange(10, 0, 59.90)
	if len(fired) != 1 {
		t.Fatalf("back_in_stock fired %d notifications", len(fired))
	}
	if fired = e.CheckPriceChange(10, 59.90, 49.90); len(fired) != 0 {
		t.Error("ordinary price change fired back_in_stock")
	}
}

func TestRuleUpsert(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 50))
	e.AddRule(dropRule(1, 10, 5)) // replaces the 50% rule

	rules := e.GetUserRules(1)
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if *rules[0].Threshold != 5 {
		t.Errorf("threshold = %v, want the replacement value", *rules[0].Threshold)
	}

	if fired := e.CheckPriceChange(10, 100, 90); len(fired) != 1 {
		t.Error("replacement rule did not fire")
	}
}

func TestInactiveRuleNeverFires(t *testing.T) {
	e := NewNotificationEngine()
	rule := dropRule(1, 10, 1)
	rule.Active = false
	e.AddRule(rule)

	if fired := e.CheckPriceChange(10, 100, 50); len(fired) != 0 {
		t.Error("inactive rule fired")
	}
}

func TestRemoveRule(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 1))
	e.RemoveRule(1, 10, models.RulePriceDrop)
	// Removing again is a no-op.
	e.RemoveRule(1, 10, models.RulePriceDrop)

	if fired := e.CheckPriceChange(10, 100, 50); len(fired) != 0 {
		t.Error("removed rule fired")
	}
}

func TestNotificationsNewestFirstAndCapped(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 0))

	price := 10_000.0
	for i := 0; i < 55; i++ {
		next := price * 0.9
		e.CheckPriceChange(10, price, next)
		price = next
	}

	list := e.GetUserNotifications(1)
	if len(list) != 50 {
		t.Fatalf("got %d notifications, want cap of 50", len(list))
	}
	if list[0].ID <= list[1].ID {
		t.Error("notifications are not newest first")
	}
}

func TestMarkAsReadAndUnreadCount(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 0))

	fired := e.CheckPriceChange(10, 100, 90)
	if len(fired) != 1 {
		t.Fatal("setup: no notification fired")
	}

	if e.UnreadCount(1) != 1 {
		t.Errorf("unread = %d, want 1", e.UnreadCount(1))
	}
	if !e.MarkAsRead(1, fired[0].ID) {
		t.Error("MarkAsRead failed for own notification")
	}
	if e.UnreadCount(1) != 0 {
		t.Errorf("unread after read = %d", e.UnreadCount(1))
	}
	if e.MarkAsRead(2, fired[0].ID) {
		t.Error("MarkAsRead succeeded for another user's notification")
	}
}

func TestClearOldNotifications(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 0))
	e.AddRule(dropRule(2, 10, 0))
	e.CheckPriceChange(10, 100, 90)

	// Recent notifications survive the default 30-day retention.
	if removed := e.ClearOldNotifications(1, 0); removed != 0 {
		t.Errorf("removed %d fresh notifications", removed)
	}

	// Everything is older than a zero-width window shrunk to one nanosecond.
	time.Sleep(2 * time.Millisecond)
	if removed := e.ClearOldNotifications(1, time.Nanosecond); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(e.GetUserNotifications(1)) != 0 {
		t.Error("cleared notification still listed")
	}
	// Other users are untouched by a per-user clear.
	if len(e.GetUserNotifications(2)) != 1 {
		t.Error("per-user clear touched another user")
	}
}

func TestNotificationSweep(t *testing.T) {
	e := NewNotificationEngine()
	e.AddRule(dropRule(1, 10, 0))
	e.AddRule(dropRule(2, 10, 0))
	e.CheckPriceChange(10, 100, 90)

	time.Sleep(2 * time.Millisecond)
	if removed := e.Sweep(time.Nanosecond); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(e.GetUserNotifications(1)) != 0 || len(e.GetUserNotifications(2)) != 0 {
		t.Error("sweep left notifications behind")
	}
}
