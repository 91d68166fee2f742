package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/billfold/billfold/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Error("Get() on missing key should return ok=false")
	}

	if err := s.Set(ctx, "theme", "dark", ScopeDevice); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok := s.Get(ctx, "theme"); !ok || v != "dark" {
		t.Errorf("Get() = %q, %v, want dark, true", v, ok)
	}

	// Overwrite keeps a single row per key
	if err := s.Set(ctx, "theme", "light", ScopeDevice); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := s.Get(ctx, "theme"); v != "light" {
		t.Errorf("Get() after overwrite = %q, want light", v)
	}

	if err := s.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := s.Get(ctx, "theme"); ok {
		t.Error("Get() after Delete should return ok=false")
	}
}

// Sign-out must remove session-scoped entries and keep device-scoped ones.
func TestPurgeSessionScoping(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Set(ctx, "token_hint", "abc", ScopeSession); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "do_not_disturb", "true", ScopeDevice); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := s.PurgeSession(ctx); err != nil {
		t.Fatalf("PurgeSession() error = %v", err)
	}

	if _, ok := s.Get(ctx, "token_hint"); ok {
		t.Error("session-scoped entry survived PurgeSession")
	}
	if v, ok := s.Get(ctx, "do_not_disturb"); !ok || v != "true" {
		t.Error("device-scoped entry should survive PurgeSession")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok := s.GetProfile(ctx); ok {
		t.Error("GetProfile() on empty store should return ok=false")
	}

	p := model.Profile{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}
	if err := s.SetProfile(ctx, p); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}

	got, ok := s.GetProfile(ctx)
	if !ok {
		t.Fatal("GetProfile() = ok=false after SetProfile")
	}
	if got.UserID != p.UserID || got.Name != p.Name || got.Email != p.Email {
		t.Errorf("GetProfile() = %+v, want %+v", got, p)
	}

	// The cached profile is session-scoped
	if err := s.PurgeSession(ctx); err != nil {
		t.Fatalf("PurgeSession() error = %v", err)
	}
	if _, ok := s.GetProfile(ctx); ok {
		t.Error("cached profile survived PurgeSession")
	}
}
