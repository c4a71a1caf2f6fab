package services

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"pechincha/models"
)

const maxNotificationsPerUser = 50

// NotificationStore is the notification contract. The in-memory
// NotificationEngine is the default implementation.
type NotificationStore interface {
	AddRule(rule models.NotificationRule)
	RemoveRule(userID, productID int, ruleType string)
	GetUserRules(userID int) []models.NotificationRule
	CheckPriceChange(productID int, oldPrice, newPrice float64) []models.Notification
	GetUserNotifications(userID int) []models.Notification
	MarkAsRead(userID int, notificationID int64) bool
	UnreadCount(userID int) int
	ClearOldNotifications(userID int, maxAge time.Duration) int
	Sweep(maxAge time.Duration) int
}

// NotificationEngine matches price changes against user rules and keeps the
// resulting notifications in memory, newest first, capped per user.
type NotificationEngine struct {
	mu            sync.RWMutex
	rules         map[string]models.NotificationRule
	notifications map[int][]models.Notification
	nextID        int64
}

// NewNotificationEngine creates an empty engine.
func NewNotificationEngine() *NotificationEngine {
	return &NotificationEngine{
		rules:         make(map[string]models.NotificationRule),
		notifications: make(map[int][]models.Notification),
		nextID:        1,
	}
}

func ruleKey(userID, productID int, ruleType string) string {
	return fmt.Sprintf("%d:%d:%s", userID, productID, ruleType)
}

// AddRule registers a rule. A second rule for the same user, product and
// type replaces the first.
func (e *NotificationEngine) AddRule(rule models.NotificationRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[ruleKey(rule.UserID, rule.ProductID, rule.Type)] = rule
}

// RemoveRule deletes a rule. Removing a rule that does not exist is a no-op.
func (e *NotificationEngine) RemoveRule(userID, productID int, ruleType string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rules, ruleKey(userID, productID, ruleType))
}

// GetUserRules returns every rule belonging to a user.
func (e *NotificationEngine) GetUserRules(userID int) []models.NotificationRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.NotificationRule
	for _, rule := range e.rules {
		if rule.UserID == userID {
			out = append(out, rule)
		}
	}
	return out
}

// CheckPriceChange evaluates a product's price movement against every
// active rule for that product and emits notifications for the ones that
// fire. Returns the notifications created.
func (e *NotificationEngine) CheckPriceChange(productID int, oldPrice, newPrice float64) []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fired []models.Notification
	for _, rule := range e.rules {
		if rule.ProductID != productID || !rule.Active {
			continue
		}
		message, ok := e.evaluate(rule, oldPrice, newPrice)
		if !ok {
			continue
		}

		notification := models.Notification{
			ID:        e.nextID,
			UserID:    rule.UserID,
			ProductID: productID,
			Type:      rule.Type,
			Message:   message,
			OldPrice:  oldPrice,
			NewPrice:  newPrice,
			Timestamp: time.Now(),
			Read:      false,
		}
		e.nextID++
		e.push(notification)
		fired = append(fired, notification)
		log.Printf("🔔 Notification for user %d: %s", rule.UserID, message)
	}
	return fired
}

// evaluate decides whether a single rule fires and builds its message.
func (e *NotificationEngine) evaluate(rule models.NotificationRule, oldPrice, newPrice float64) (string, bool) {
	switch rule.Type {
	case models.RuleBackInStock:
		if oldPrice <= 0 && newPrice > 0 {
			return fmt.Sprintf("Produto disponível novamente por R$ %.2f!", newPrice), true
		}

	case models.RulePriceDrop:
		if oldPrice <= 0 || newPrice >= oldPrice {
			return "", false
		}
		pct := (oldPrice - newPrice) / oldPrice * 100
		threshold := 0.0
		if rule.Threshold != nil {
			threshold = *rule.Threshold
		}
		if pct >= threshold {
			return fmt.Sprintf("Preço caiu %d%%: de R$ %.2f para R$ %.2f", int(math.Round(pct)), oldPrice, newPrice), true
		}

	case models.RulePriceRise:
		if oldPrice <= 0 || newPrice <= oldPrice {
			return "", false
		}
		pct := (newPrice - oldPrice) / oldPrice * 100
		threshold := 0.0
		if rule.Threshold != nil {
			threshold = *rule.Threshold
		}
		if pct >= threshold {
			return fmt.Sprintf("Preço subiu %d%%: de R$ %.2f para R$ %.2f", int(math.Round(pct)), oldPrice, newPrice), true
		}
	}
	return "", false
}

// push prepends a notification and trims the user's list to the cap.
// Caller holds the lock.
func (e *NotificationEngine) push(notification models.Notification) {
	list := append([]models.Notification{notification}, e.notifications[notification.UserID]...)
	if len(list) > maxNotificationsPerUser {
		list = list[:maxNotificationsPerUser]
	}
	e.notifications[notification.UserID] = list
}

// GetUserNotifications returns a user's notifications, newest first.
func (e *NotificationEngine) GetUserNotifications(userID int) []models.Notification {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := e.notifications[userID]
	out := make([]models.Notification, len(list))
	copy(out, list)
	return out
}

// MarkAsRead flags one notification. Returns false when the ID does not
// belong to the user.
func (e *NotificationEngine) MarkAsRead(userID int, notificationID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.notifications[userID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].Read = true
			return true
		}
	}
	return false
}

// UnreadCount returns the number of unread notifications for a user.
func (e *NotificationEngine) UnreadCount(userID int) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	count := 0
	for _, n := range e.notifications[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

// ClearOldNotifications drops one user's notifications older than maxAge.
// A non-positive maxAge defaults to 30 days. Returns the number removed.
func (e *NotificationEngine) ClearOldNotifications(userID int, maxAge time.Duration) int {
	cutoff := retentionCutoff(maxAge)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clearBefore(userID, cutoff)
}

// Sweep applies the retention window to every user. The scheduler runs it
// daily.
func (e *NotificationEngine) Sweep(maxAge time.Duration) int {
	cutoff := retentionCutoff(maxAge)

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for userID := range e.notifications {
		removed += e.clearBefore(userID, cutoff)
	}
	if removed > 0 {
		log.Printf("🧹 Cleared %d old notifications", removed)
	}
	return removed
}

func retentionCutoff(maxAge time.Duration) time.Time {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return time.Now().Add(-maxAge)
}

// clearBefore drops a user's notifications at or older than the cutoff.
// Caller holds the lock.
func (e *NotificationEngine) clearBefore(userID int, cutoff time.Time) int {
	list := e.notifications[userID]
	kept := list[:0]
	removed := 0
	for _, n := range list {
		if n.Timestamp.After(cutoff) {
			kept = append(kept, n)
		} else {
			removed++
		}
	}
	if len(kept) == 0 {
		delete(e.notifications, userID)
	} else {
		e.notifications[userID] = kept
	}
	return removed
}
