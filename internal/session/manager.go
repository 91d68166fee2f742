package session

import (
	"context"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// Authenticator is the slice of the backend client the manager needs
type Authenticator interface {
	CurrentSession() *model.Session
	RefreshSession() (*model.Session, error)
	SignOut() error
	OnAuthChange() <-chan backend.AuthEvent
}

// Purger clears session-scoped persistent storage
type Purger interface {
	PurgeSession(ctx context.Context) error
}

// EventType identifies a session state change surfaced to the UI
type EventType string

const (
	SignedIn  EventType = "signed-in"
	SignedOut EventType = "signed-out"
	Refreshed EventType = "refreshed"
)

// Event is delivered to UI listeners on session changes. ColdStart marks
// the sign-in emitted for a session restored at startup, so the UI can
// skip "welcome back" feedback on a plain restart.
type Event struct {
	Type      EventType
	Session   *model.Session
	ColdStart bool
}

// Manager owns the auth session: it restores a persisted session on
// start, refreshes the token on an interval, reconciles backend auth
// events, and purges session-scoped storage on sign-out.
type Manager struct {
	client  Authenticator
	store   Purger
	refresh time.Duration

	mu        sync.Mutex
	session   *model.Session
	listeners []chan Event

	stop   context.CancelFunc
	stopWG sync.WaitGroup
}

// NewManager creates a session manager. store may be nil when there is
// no session-scoped storage to purge.
func NewManager(client Authenticator, store Purger) *Manager {
	return &Manager{
		client:  client,
		store:   store,
		refresh: time.Hour,
	}
}

// SetRefreshInterval overrides the hourly token refresh cadence. Call
// before Start.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	if d > 0 {
		m.refresh = d
	}
}

// Session returns the current session, or nil when signed out
func (m *Manager) Session() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// UserID returns the signed-in user's id, or "" when signed out
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.UserID
}

// Events registers a listener for session state changes
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, 4)
	m.listeners = append(m.listeners, ch)
	return ch
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	listeners := make([]chan Event, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Start restores any persisted session and begins the refresh loop
func (m *Manager) Start(ctx context.Context) {
	ctx, m.stop = context.WithCancel(ctx)

	if s := m.client.CurrentSession(); s != nil {
		m.mu.Lock()
		m.session = s
		m.mu.Unlock()
		logger.Info("Session restored", logger.F("userID", s.UserID))
		m.emit(Event{Type: SignedIn, Session: s, ColdStart: true})
	}

	m.stopWG.Add(2)
	go m.refreshLoop(ctx)
	go m.watchAuthEvents(ctx)
}

// Stop halts the refresh loop and auth event watcher
func (m *Manager) Stop() {
	if m.stop != nil {
		m.stop()
	}
	m.stopWG.Wait()
}

// refreshLoop silently refreshes the token on an interval. A failed
// refresh is treated as a sign-out.
func (m *Manager) refreshLoop(ctx context.Context) {
	defer m.stopWG.Done()

	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			active := m.session != nil
			m.mu.Unlock()
			if !active {
				continue
			}

			session, err := m.client.RefreshSession()
			if err != nil {
				logger.Warn("Session refresh failed, signing out", logger.F("error", err))
				m.clearLocal(ctx)
				m.emit(Event{Type: SignedOut})
				continue
			}

			m.mu.Lock()
			m.session = session
			m.mu.Unlock()
			logger.Debug("Session refreshed", logger.F("expiresAt", session.ExpiresAt))
		}
	}
}

// watchAuthEvents reconciles local state with backend-pushed auth events
func (m *Manager) watchAuthEvents(ctx context.Context) {
	defer m.stopWG.Done()

	events := m.client.OnAuthChange()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case backend.AuthSignedIn:
				m.mu.Lock()
				m.session = ev.Session
				m.mu.Unlock()
				m.emit(Event{Type: SignedIn, Session: ev.Session})
			case backend.AuthSignedOut:
				m.clearLocal(ctx)
				m.emit(Event{Type: SignedOut})
			case backend.AuthTokenRefresh, backend.AuthUserUpdated:
				m.mu.Lock()
				m.session = ev.Session
				m.mu.Unlock()
				m.emit(Event{Type: Refreshed, Session: ev.Session})
			}
		}
	}
}

// SignOut clears session-scoped storage, then invalidates the session
func (m *Manager) SignOut(ctx context.Context) error {
	m.clearLocal(ctx)
	return m.client.SignOut()
}

func (m *Manager) clearLocal(ctx context.Context) {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.PurgeSession(ctx); err != nil {
			logger.Error("Failed to purge session storage", logger.F("error", err))
		}
	}
}
