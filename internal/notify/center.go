package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// fetchLimit caps how many notification rows are held locally
const fetchLimit = 50

// dndKey is the local storage key for the do-not-disturb flag
const dndKey = "do_not_disturb"

// Store is the slice of the backend client the center needs
type Store interface {
	ListNotifications(limit int) ([]model.Notification, error)
	MarkNotificationRead(id string) error
	MarkAllNotificationsRead() error
	ClearNotifications() error
}

// Prefs persists the do-not-disturb flag across runs
type Prefs interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value, scope string) error
}

// Center holds the user's most recent notifications, keeps an unread
// counter, and mirrors read-state changes optimistically. Remote
// failures on mark-read/clear are logged, not rolled back.
type Center struct {
	store Store
	prefs Prefs

	mu      sync.Mutex
	items   []model.Notification
	dnd     bool
	alertFn func(model.Notification)
}

// NewCenter creates a notification center, restoring the persisted
// do-not-disturb flag.
func NewCenter(ctx context.Context, store Store, prefs Prefs) *Center {
	c := &Center{store: store, prefs: prefs}
	if prefs != nil {
		if v, ok := prefs.Get(ctx, dndKey); ok {
			c.dnd = v == "true"
		}
	}
	return c
}

// SetAlertFunc registers the pop-up hook for newly inserted notifications.
// Do-not-disturb suppresses the hook, never the badge count.
func (c *Center) SetAlertFunc(fn func(model.Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alertFn = fn
}

// Items returns a copy of the loaded notifications, newest first
func (c *Center) Items() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread returns the number of loaded notifications not yet read
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// Refresh replaces the loaded set with the newest rows from the backend
func (c *Center) Refresh(ctx context.Context) error {
	items, err := c.store.ListNotifications(fetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// MarkRead flags one notification as read, remote first, local mirror
// second. A remote failure is logged and the local change kept.
func (c *Center) MarkRead(ctx context.Context, id string) {
	if err := c.store.MarkNotificationRead(id); err != nil {
		logger.Error("Failed to mark notification read", logger.F("id", id), logger.F("error", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			break
		}
	}
}

// MarkAllRead flags every loaded notification as read
func (c *Center) MarkAllRead(ctx context.Context) {
	if err := c.store.MarkAllNotificationsRead(); err != nil {
		logger.Error("Failed to mark all notifications read", logger.F("error", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		c.items[i].Read = true
	}
}

// ClearAll deletes every notification row for the user, read or not
func (c *Center) ClearAll(ctx context.Context) {
	if err := c.store.ClearNotifications(); err != nil {
		logger.Error("Failed to clear notifications", logger.F("error", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// DoNotDisturb returns the current do-not-disturb flag
func (c *Center) DoNotDisturb() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dnd
}

// SetDoNotDisturb persists the do-not-disturb flag
func (c *Center) SetDoNotDisturb(ctx context.Context, on bool) {
	c.mu.Lock()
	c.dnd = on
	c.mu.Unlock()

	if c.prefs != nil {
		v := "false"
		if on {
			v = "true"
		}
		if err := c.prefs.Set(ctx, dndKey, v, localstore.ScopeDevice); err != nil {
			logger.Warn("Failed to persist do-not-disturb flag", logger.F("error", err))
		}
	}
}

// Watch consumes realtime events for the notifications table. Any event
// triggers a full refetch; volume is low enough that consistency beats
// incremental patching. Inserts additionally fire the pop-up hook unless
// do-not-disturb is set.
func (c *Center) Watch(ctx context.Context, events <-chan backend.Event, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := c.Refresh(ctx); err != nil {
				logger.Warn("Notification refetch failed", logger.F("error", err))
				continue
			}

			if ev.Type == backend.EventInsert {
				c.mu.Lock()
				fn := c.alertFn
				suppressed := c.dnd
				c.mu.Unlock()

				if fn != nil && !suppressed {
					if n, err := ev.Notification(); err == nil {
						fn(n)
					}
				}
			}

			if onChange != nil {
				onChange()
			}
		}
	}
}
