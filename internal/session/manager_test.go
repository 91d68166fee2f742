package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/model"
)

type fakeAuth struct {
	session    *model.Session
	events     chan backend.AuthEvent
	signOuts   int
	refreshes  int
	refreshErr error
}

func newFakeAuth(s *model.Session) *fakeAuth {
	return &fakeAuth{session: s, events: make(chan backend.AuthEvent, 4)}
}

func (a *fakeAuth) CurrentSession() *model.Session { return a.session }

func (a *fakeAuth) RefreshSession() (*model.Session, error) {
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	a.refreshes++
	return a.session, nil
}

func (a *fakeAuth) SignOut() error {
	a.signOuts++
	a.session = nil
	return nil
}

func (a *fakeAuth) OnAuthChange() <-chan backend.AuthEvent { return a.events }

type fakePurger struct {
	purges int
}

func (p *fakePurger) PurgeSession(ctx context.Context) error {
	p.purges++
	return nil
}

func testSession() *model.Session {
	return &model.Session{
		Token:     "tok",
		UserID:    "user-1",
		Email:     "a@b.c",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestStartEmitsColdStartSignIn(t *testing.T) {
	auth := newFakeAuth(testSession())
	mgr := NewManager(auth, &fakePurger{})

	events := mgr.Events()
	mgr.Start(context.Background())
	defer mgr.Stop()

	select {
	case ev := <-events:
		if ev.Type != SignedIn {
			t.Errorf("event type = %q, want %q", ev.Type, SignedIn)
		}
		if !ev.ColdStart {
			t.Error("restored session should be flagged as cold start")
		}
	case <-time.After(time.Second):
		t.Fatal("no event emitted for restored session")
	}

	if mgr.UserID() != "user-1" {
		t.Errorf("UserID() = %q, want user-1", mgr.UserID())
	}
}

func TestStartWithoutSession(t *testing.T) {
	auth := newFakeAuth(nil)
	mgr := NewManager(auth, &fakePurger{})

	mgr.Start(context.Background())
	defer mgr.Stop()

	if mgr.Session() != nil {
		t.Error("Session() should be nil when nothing was persisted")
	}
}

// Sign-out purges session storage even though the remote call also runs.
func TestSignOutPurgesStorage(t *testing.T) {
	auth := newFakeAuth(testSession())
	purger := &fakePurger{}
	mgr := NewManager(auth, purger)

	if err := mgr.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	if purger.purges != 1 {
		t.Errorf("purges = %d, want 1", purger.purges)
	}
	if auth.signOuts != 1 {
		t.Errorf("remote sign-outs = %d, want 1", auth.signOuts)
	}
	if mgr.Session() != nil {
		t.Error("Session() should be nil after sign-out")
	}
}

// A failed silent refresh is treated as a sign-out: session state is
// cleared and session-scoped storage purged.
func TestRefreshFailureSignsOut(t *testing.T) {
	auth := newFakeAuth(testSession())
	auth.refreshErr = fmt.Errorf("refresh token revoked")
	purger := &fakePurger{}
	mgr := NewManager(auth, purger)
	mgr.SetRefreshInterval(10 * time.Millisecond)

	events := mgr.Events()
	mgr.Start(context.Background())
	defer mgr.Stop()

	<-events // cold start sign-in

	select {
	case ev := <-events:
		if ev.Type != SignedOut {
			t.Errorf("event type = %q, want %q", ev.Type, SignedOut)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed-out event after failed refresh")
	}

	if mgr.Session() != nil {
		t.Error("Session() should be nil after failed refresh")
	}
	if purger.purges != 1 {
		t.Errorf("purges = %d, want 1", purger.purges)
	}
}

func TestAuthEventSignedOutClearsState(t *testing.T) {
	auth := newFakeAuth(testSession())
	purger := &fakePurger{}
	mgr := NewManager(auth, purger)

	events := mgr.Events()
	mgr.Start(context.Background())
	defer mgr.Stop()

	<-events // cold start sign-in

	auth.events <- backend.AuthEvent{Type: backend.AuthSignedOut}

	select {
	case ev := <-events:
		if ev.Type != SignedOut {
			t.Errorf("event type = %q, want %q", ev.Type, SignedOut)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed-out event emitted")
	}

	if mgr.Session() != nil {
		t.Error("Session() should be nil after signed-out event")
	}
	if purger.purges != 1 {
		t.Errorf("purges = %d, want 1", purger.purges)
	}
}

func TestTokenRefreshEventUpdatesSession(t *testing.T) {
	auth := newFakeAuth(testSession())
	mgr := NewManager(auth, &fakePurger{})

	events := mgr.Events()
	mgr.Start(context.Background())
	defer mgr.Stop()

	<-events // cold start sign-in

	rotated := testSession()
	rotated.Token = "tok-2"
	auth.events <- backend.AuthEvent{Type: backend.AuthTokenRefresh, Session: rotated}

	select {
	case ev := <-events:
		if ev.Type != Refreshed {
			t.Errorf("event type = %q, want %q", ev.Type, Refreshed)
		}
	case <-time.After(time.Second):
		t.Fatal("no refreshed event emitted")
	}

	if got := mgr.Session(); got == nil || got.Token != "tok-2" {
		t.Errorf("Session().Token = %v, want tok-2", got)
	}
}
