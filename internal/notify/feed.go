package notify

import (
	"sync"
	"time"

	"github.com/billbuzz/billbuzz/shared/models"
)

// Feed is the in-app notification list, newest first. It is bounded to
// limit entries (oldest dropped first) and never persisted.
type Feed struct {
	mu    sync.Mutex
	items []models.Notification
	limit int
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 100
	}
	return &Feed{limit: limit}
}

// Push prepends each notification in order, so the last one ends up first.
func (f *Feed) Push(ns ...models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushLocked(ns)
}

// Seed pushes only the notifications whose id is not already in the feed.
func (f *Feed) Seed(ns ...models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	have := make(map[string]bool, len(f.items))
	for _, n := range f.items {
		have[n.ID] = true
	}
	var fresh []models.Notification
	for _, n := range ns {
		if !have[n.ID] {
			fresh = append(fresh, n)
			have[n.ID] = true
		}
	}
	f.pushLocked(fresh)
}

func (f *Feed) pushLocked(ns []models.Notification) {
	for _, n := range ns {
		f.items = append([]models.Notification{n}, f.items...)
	}
	if len(f.items) > f.limit {
		f.items = f.items[:f.limit]
	}
}

func (f *Feed) Items() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) Snapshot() models.NotificationFeed {
	items := f.Items()
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	return models.NotificationFeed{Notifications: items, UnreadCount: unread}
}

// MarkAllRead runs when the feed is opened.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].Read = true
	}
}

func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
}

// PruneExpired drops non-persistent entries at least maxAge old and
// returns how many went.
func (f *Feed) PruneExpired(now time.Time, maxAge time.Duration) int {
	return f.removeIf(func(n models.Notification) bool {
		return !n.Persistent && now.Sub(n.Timestamp) >= maxAge
	})
}

// PruneByPaid drops entries that point at a payment which is now paid.
// Entries for payments missing from the list are kept.
func (f *Feed) PruneByPaid(payments []models.Payment) int {
	paid := make(map[string]bool, len(payments))
	for _, p := range payments {
		if p.IsPaid {
			paid[p.ID] = true
		}
	}
	return f.removeIf(func(n models.Notification) bool {
		return n.PaymentID != "" && paid[n.PaymentID]
	})
}

func (f *Feed) removeIf(drop func(models.Notification) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	removed := 0
	for _, n := range f.items {
		if drop(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.items = kept
	return removed
}
