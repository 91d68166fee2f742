package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// Store is the slice of the backend client the cache needs
type Store interface {
	FetchProfile() (model.Profile, error)
	SaveProfile(p model.Profile) (model.Profile, error)
}

// LocalCache is the persistent read-through layer
type LocalCache interface {
	GetProfile(ctx context.Context) (model.Profile, bool)
	SetProfile(ctx context.Context, p model.Profile) error
	Delete(ctx context.Context, key string) error
}

// Cache is a read-through cache over the user's profile row: it hydrates
// synchronously from persistent storage to avoid a loading flash, then
// refetches from the backend and overwrites both layers.
type Cache struct {
	store Store
	local LocalCache

	mu      sync.Mutex
	profile *model.Profile
}

// NewCache creates a profile cache
func NewCache(store Store, local LocalCache) *Cache {
	return &Cache{store: store, local: local}
}

// Profile returns the in-memory profile, or nil when none is loaded
func (c *Cache) Profile() *model.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// Hydrate loads the cached profile for userID from persistent storage.
// A cached row belonging to a different user is ignored.
func (c *Cache) Hydrate(ctx context.Context, userID string) bool {
	if c.local == nil {
		return false
	}

	p, ok := c.local.GetProfile(ctx)
	if !ok || p.UserID != userID {
		return false
	}

	c.mu.Lock()
	c.profile = &p
	c.mu.Unlock()
	return true
}

// Refresh fetches the profile from the backend and overwrites both the
// in-memory state and the persistent cache. When no profile row exists
// for a new user, a default one is created and the fetch retried exactly
// once.
func (c *Cache) Refresh(ctx context.Context, userID, email string) error {
	p, err := c.store.FetchProfile()
	if errors.Is(err, backend.ErrNotFound) {
		logger.Info("No profile row, creating default", logger.F("userID", userID))
		if _, err := c.store.SaveProfile(model.DefaultProfile(userID, email)); err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}
		p, err = c.store.FetchProfile()
	}
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	c.apply(ctx, p)
	return nil
}

// Load hydrates from the persistent cache, then refreshes from the backend
func (c *Cache) Load(ctx context.Context, userID, email string) error {
	c.Hydrate(ctx, userID)
	return c.Refresh(ctx, userID, email)
}

// Update writes profile changes to the backend, then mirrors them locally
func (c *Cache) Update(ctx context.Context, p model.Profile) error {
	saved, err := c.store.SaveProfile(p)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	c.apply(ctx, saved)
	return nil
}

func (c *Cache) apply(ctx context.Context, p model.Profile) {
	c.mu.Lock()
	c.profile = &p
	c.mu.Unlock()

	if c.local != nil {
		if err := c.local.SetProfile(ctx, p); err != nil {
			logger.Warn("Failed to write profile cache", logger.F("error", err))
		}
	}
}

// Purge drops both the in-memory profile and the persistent cache entry.
// Called on sign-out.
func (c *Cache) Purge(ctx context.Context) {
	c.mu.Lock()
	c.profile = nil
	c.mu.Unlock()

	if c.local != nil {
		if err := c.local.Delete(ctx, localstore.ProfileKey); err != nil {
			logger.Warn("Failed to purge profile cache", logger.F("error", err))
		}
	}
}
