package tui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/model"
	"github.com/billfold/billfold/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeTaskStore struct {
	tasks  map[string]model.Task
	nextID int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]model.Task)}
}

func (s *fakeTaskStore) ListTasks() ([]model.Task, error) {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTaskStore) InsertTask(t model.Task) (model.Task, error) {
	s.nextID++
	t.ID = fmt.Sprintf("task-%d", s.nextID)
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeTaskStore) UpdateTask(t model.Task) (model.Task, error) {
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeTaskStore) DeleteTask(id string) error {
	delete(s.tasks, id)
	return nil
}

type fakeInvoiceStore struct {
	items []model.Invoice
}

func (s *fakeInvoiceStore) ListInvoices() ([]model.Invoice, error) { return s.items, nil }

func (s *fakeInvoiceStore) GetInvoice(id string) (model.Invoice, error) {
	for _, inv := range s.items {
		if inv.ID == id {
			return inv, nil
		}
	}
	return model.Invoice{}, fmt.Errorf("invoice %s not found", id)
}

func (s *fakeInvoiceStore) InsertInvoice(inv model.Invoice) (model.Invoice, error) {
	s.items = append(s.items, inv)
	return inv, nil
}

func (s *fakeInvoiceStore) UpdateInvoice(inv model.Invoice) (model.Invoice, error) {
	return inv, nil
}

func (s *fakeInvoiceStore) DeleteInvoices(ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.items[:0]
	for _, inv := range s.items {
		if !drop[inv.ID] {
			kept = append(kept, inv)
		}
	}
	s.items = kept
	return nil
}

// testModel builds a model over in-memory fakes with one task and one
// invoice loaded, skipping the realtime watchers.
func testModel(t *testing.T, confirmDelete bool) Model {
	t.Helper()

	board := kanban.NewBoard(newFakeTaskStore(), "user-1")
	if _, err := board.Create("Pay rent", kanban.CreateOptions{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	svc := invoice.NewService(&fakeInvoiceStore{items: []model.Invoice{
		{ID: "inv-1", UserID: "user-1", Title: "Laptop"},
	}})
	if err := svc.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	return Model{
		board:         board,
		invoices:      svc,
		confirmDelete: confirmDelete,
		selected:      make(map[string]bool),
		width:         80,
		height:        24,
	}
}

func keyPress(r rune) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	mm, _ := m.Update(msg)
	out, ok := mm.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", mm)
	}
	return out
}

// With confirmation on, the first delete press only arms the action.
func TestDeleteTaskNeedsConfirmation(t *testing.T) {
	m := testModel(t, true)

	m = apply(t, m, keyPress('d'))
	if !m.pendingDelete {
		t.Error("first delete press should arm the confirmation")
	}
	if n := len(m.board.Tasks()); n != 1 {
		t.Fatalf("board has %d tasks after one press, want 1", n)
	}

	m = apply(t, m, keyPress('d'))
	if m.pendingDelete {
		t.Error("confirmation should be consumed")
	}
	if n := len(m.board.Tasks()); n != 0 {
		t.Errorf("board has %d tasks after confirmation, want 0", n)
	}
}

// Any other key disarms a pending delete.
func TestPendingDeleteCancelledByOtherKey(t *testing.T) {
	m := testModel(t, true)

	m = apply(t, m, keyPress('d'))
	m = apply(t, m, keyPress('j'))
	if m.pendingDelete {
		t.Error("pending delete should be cancelled by another key")
	}
	if n := len(m.board.Tasks()); n != 1 {
		t.Errorf("board has %d tasks, want 1", n)
	}
}

func TestDeleteTaskWithoutConfirmation(t *testing.T) {
	m := testModel(t, false)

	m = apply(t, m, keyPress('d'))
	if n := len(m.board.Tasks()); n != 0 {
		t.Errorf("board has %d tasks, want 0", n)
	}
}

func TestDeleteInvoiceNeedsConfirmation(t *testing.T) {
	m := testModel(t, true)
	m.view = ViewInvoices

	m = apply(t, m, keyPress('d'))
	if n := len(m.invoices.All()); n != 1 {
		t.Fatalf("%d invoices after one press, want 1", n)
	}

	m = apply(t, m, keyPress('d'))
	if n := len(m.invoices.All()); n != 0 {
		t.Errorf("%d invoices after confirmation, want 0", n)
	}
}

// A session restored at startup is not news; only fresh sign-ins and
// sign-outs reach the status line.
func TestSessionEventsOnStatusLine(t *testing.T) {
	m := testModel(t, false)

	m = apply(t, m, sessionMsg(session.Event{
		Type:      session.SignedIn,
		ColdStart: true,
		Session:   &model.Session{Email: "ada@example.com"},
	}))
	if m.message != "" {
		t.Errorf("cold-start sign-in set message %q, want none", m.message)
	}

	m = apply(t, m, sessionMsg(session.Event{
		Type:    session.SignedIn,
		Session: &model.Session{Email: "ada@example.com"},
	}))
	if !strings.Contains(m.message, "ada@example.com") {
		t.Errorf("message = %q, want sign-in feedback", m.message)
	}

	m = apply(t, m, sessionMsg(session.Event{Type: session.SignedOut}))
	if !strings.Contains(m.message, "signed out") {
		t.Errorf("message = %q, want sign-out feedback", m.message)
	}
}
