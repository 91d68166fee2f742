package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/model"
)

type fakeStore struct {
	items   []model.Notification
	cleared bool
}

func (s *fakeStore) ListNotifications(limit int) ([]model.Notification, error) {
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

func (s *fakeStore) MarkNotificationRead(id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s not found", id)
}

func (s *fakeStore) MarkAllNotificationsRead() error {
	for i := range s.items {
		s.items[i].Read = true
	}
	return nil
}

func (s *fakeStore) ClearNotifications() error {
	s.items = nil
	s.cleared = true
	return nil
}

type fakePrefs struct {
	values map[string]string
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{values: make(map[string]string)}
}

func (p *fakePrefs) Get(ctx context.Context, key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *fakePrefs) Set(ctx context.Context, key, value, scope string) error {
	if scope != localstore.ScopeDevice && scope != localstore.ScopeSession {
		return fmt.Errorf("unknown scope %q", scope)
	}
	p.values[key] = value
	return nil
}

func sampleNotifications() []model.Notification {
	return []model.Notification{
		{ID: "n1", Title: "Invoice added", Type: model.NotifyInvoice},
		{ID: "n2", Title: "Warranty expiring", Type: model.NotifyWarranty},
		{ID: "n3", Title: "Welcome", Type: model.NotifySystem, Read: true},
	}
}

func newTestCenter(t *testing.T, store *fakeStore) *Center {
	t.Helper()
	ctx := context.Background()
	c := NewCenter(ctx, store, newFakePrefs())
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return c
}

func TestUnreadCount(t *testing.T) {
	c := newTestCenter(t, &fakeStore{items: sampleNotifications()})

	if got := c.Unread(); got != 2 {
		t.Errorf("Unread() = %d, want 2", got)
	}
}

// Marking one notification read decrements the badge by exactly one.
func TestMarkReadDecrementsUnread(t *testing.T) {
	c := newTestCenter(t, &fakeStore{items: sampleNotifications()})

	before := c.Unread()
	c.MarkRead(context.Background(), "n1")

	if got := c.Unread(); got != before-1 {
		t.Errorf("Unread() = %d after MarkRead, want %d", got, before-1)
	}
}

func TestMarkAllRead(t *testing.T) {
	c := newTestCenter(t, &fakeStore{items: sampleNotifications()})

	c.MarkAllRead(context.Background())

	if got := c.Unread(); got != 0 {
		t.Errorf("Unread() = %d after MarkAllRead, want 0", got)
	}
	if got := len(c.Items()); got != 3 {
		t.Errorf("Items() = %d rows after MarkAllRead, want 3 (rows kept)", got)
	}
}

// Clear removes every row, read or not.
func TestClearAllRemovesEverything(t *testing.T) {
	store := &fakeStore{items: sampleNotifications()}
	c := newTestCenter(t, store)

	c.ClearAll(context.Background())

	if got := len(c.Items()); got != 0 {
		t.Errorf("Items() = %d rows after ClearAll, want 0", got)
	}
	if !store.cleared {
		t.Error("ClearAll should hit the backend")
	}
}

func TestDoNotDisturbPersists(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()

	c := NewCenter(ctx, &fakeStore{}, prefs)
	c.SetDoNotDisturb(ctx, true)

	if !c.DoNotDisturb() {
		t.Error("DoNotDisturb() = false after SetDoNotDisturb(true)")
	}

	// A fresh center restores the flag from the same prefs
	c2 := NewCenter(ctx, &fakeStore{}, prefs)
	if !c2.DoNotDisturb() {
		t.Error("new center should restore the persisted flag")
	}
}

func TestFetchLimit(t *testing.T) {
	var many []model.Notification
	for i := 0; i < 80; i++ {
		many = append(many, model.Notification{ID: fmt.Sprintf("n%d", i), Title: "bulk"})
	}

	c := newTestCenter(t, &fakeStore{items: many})

	if got := len(c.Items()); got != fetchLimit {
		t.Errorf("Items() = %d rows, want %d", got, fetchLimit)
	}
}
