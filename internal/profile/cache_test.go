package profile

import (
	"context"
	"testing"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/model"
)

type fakeStore struct {
	profile    *model.Profile
	fetchCalls int
	saveCalls  int
}

func (s *fakeStore) FetchProfile() (model.Profile, error) {
	s.fetchCalls++
	if s.profile == nil {
		return model.Profile{}, backend.ErrNotFound
	}
	return *s.profile, nil
}

func (s *fakeStore) SaveProfile(p model.Profile) (model.Profile, error) {
	s.saveCalls++
	s.profile = &p
	return p, nil
}

type fakeLocal struct {
	profile *model.Profile
	deleted []string
}

func (l *fakeLocal) GetProfile(ctx context.Context) (model.Profile, bool) {
	if l.profile == nil {
		return model.Profile{}, false
	}
	return *l.profile, true
}

func (l *fakeLocal) SetProfile(ctx context.Context, p model.Profile) error {
	l.profile = &p
	return nil
}

func (l *fakeLocal) Delete(ctx context.Context, key string) error {
	l.deleted = append(l.deleted, key)
	l.profile = nil
	return nil
}

func TestHydrateFromCache(t *testing.T) {
	local := &fakeLocal{profile: &model.Profile{UserID: "user-1", Name: "Cached"}}
	cache := NewCache(&fakeStore{}, local)

	if !cache.Hydrate(context.Background(), "user-1") {
		t.Fatal("Hydrate() = false, want true")
	}
	if got := cache.Profile(); got == nil || got.Name != "Cached" {
		t.Errorf("Profile() = %+v, want cached row", got)
	}
}

// A cached row left behind by a different account must never be shown.
func TestHydrateIgnoresOtherUser(t *testing.T) {
	local := &fakeLocal{profile: &model.Profile{UserID: "user-1", Name: "Stale"}}
	cache := NewCache(&fakeStore{}, local)

	if cache.Hydrate(context.Background(), "user-2") {
		t.Fatal("Hydrate() = true for another user's cached row")
	}
	if cache.Profile() != nil {
		t.Error("Profile() should be nil after rejected hydrate")
	}
}

func TestRefreshCreatesDefaultForNewUser(t *testing.T) {
	store := &fakeStore{}
	local := &fakeLocal{}
	cache := NewCache(store, local)

	err := cache.Refresh(context.Background(), "user-1", "new@example.com")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if store.saveCalls != 1 {
		t.Errorf("saveCalls = %d, want 1 (default profile created once)", store.saveCalls)
	}
	if store.fetchCalls != 2 {
		t.Errorf("fetchCalls = %d, want 2 (initial miss + retry)", store.fetchCalls)
	}

	p := cache.Profile()
	if p == nil || p.Email != "new@example.com" {
		t.Errorf("Profile() = %+v, want default with email", p)
	}
	if local.profile == nil {
		t.Error("refresh should mirror the profile into the persistent cache")
	}
}

func TestRefreshOverwritesHydratedCopy(t *testing.T) {
	store := &fakeStore{profile: &model.Profile{UserID: "user-1", Name: "Fresh"}}
	local := &fakeLocal{profile: &model.Profile{UserID: "user-1", Name: "Stale"}}
	cache := NewCache(store, local)

	if err := cache.Load(context.Background(), "user-1", "a@b.c"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cache.Profile(); got.Name != "Fresh" {
		t.Errorf("Profile().Name = %q, want %q", got.Name, "Fresh")
	}
	if local.profile.Name != "Fresh" {
		t.Errorf("cached Name = %q, want %q", local.profile.Name, "Fresh")
	}
}

func TestPurge(t *testing.T) {
	store := &fakeStore{profile: &model.Profile{UserID: "user-1", Name: "Fresh"}}
	local := &fakeLocal{}
	cache := NewCache(store, local)

	if err := cache.Load(context.Background(), "user-1", "a@b.c"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cache.Purge(context.Background())

	if cache.Profile() != nil {
		t.Error("Profile() should be nil after purge")
	}
	if len(local.deleted) != 1 {
		t.Errorf("purge deleted %d cache keys, want 1", len(local.deleted))
	}
}
