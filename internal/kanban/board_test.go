package kanban

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/model"
)

// fakeStore is an in-memory Store that echoes server behavior: inserts
// assign ids, updates return the stored row.
type fakeStore struct {
	tasks   map[string]model.Task
	nextID  int
	failAll bool
	failIDs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:   make(map[string]model.Task),
		failIDs: make(map[string]bool),
	}
}

func (s *fakeStore) ListTasks() ([]model.Task, error) {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) InsertTask(t model.Task) (model.Task, error) {
	if s.failAll {
		return model.Task{}, fmt.Errorf("store down")
	}
	s.nextID++
	t.ID = fmt.Sprintf("task-%d", s.nextID)
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeStore) UpdateTask(t model.Task) (model.Task, error) {
	if s.failAll || s.failIDs[t.ID] {
		return model.Task{}, fmt.Errorf("store down")
	}
	if _, ok := s.tasks[t.ID]; !ok {
		return model.Task{}, fmt.Errorf("task %s not found", t.ID)
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeStore) DeleteTask(id string) error {
	if s.failAll || s.failIDs[id] {
		return fmt.Errorf("store down")
	}
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %s not found", id)
	}
	delete(s.tasks, id)
	return nil
}

func TestCreateDefaults(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")

	created, err := board.Create("Write report", CreateOptions{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == "" {
		t.Error("Create() should return the server-assigned id")
	}
	if created.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want %q", created.Priority, model.PriorityMedium)
	}
	if created.Column() != model.StatusPending {
		t.Errorf("column = %q, want %q", created.Column(), model.StatusPending)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")
	if _, err := board.Create("", CreateOptions{}); err == nil {
		t.Error("Create(\"\") should fail")
	}
}

// A task must be in exactly one column at all times.
func TestExactlyOneColumn(t *testing.T) {
	store := newFakeStore()
	board := NewBoard(store, "user-1")

	created, err := board.Create("Single home", CreateOptions{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	steps := []func() error{
		func() error { _, err := board.Move(created.ID, model.StatusInProgress); return err },
		func() error { _, err := board.ToggleDone(created.ID); return err },
		func() error { _, err := board.ToggleDone(created.ID); return err },
		func() error { _, err := board.Move(created.ID, model.StatusCompleted); return err },
	}

	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}

		appearances := 0
		for _, col := range ColumnIDs {
			for _, task := range board.Column(col) {
				if task.ID == created.ID {
					appearances++
				}
			}
		}
		if appearances != 1 {
			t.Fatalf("after step %d task appears in %d columns, want 1", i, appearances)
		}
	}
}

func TestMoveSetsDoneForCompleted(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")
	created, _ := board.Create("Ship it", CreateOptions{})

	moved, err := board.Move(created.ID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !moved.Done {
		t.Error("moving to completed should set done")
	}

	back, err := board.Move(created.ID, model.StatusPending)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if back.Done {
		t.Error("moving out of completed should clear done")
	}
}

func TestMoveUnknownColumn(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")
	created, _ := board.Create("Task", CreateOptions{})

	if _, err := board.Move(created.ID, "archived"); err == nil {
		t.Error("Move to unknown column should fail")
	}
}

// The echo of this client's own insert must not create a duplicate.
func TestApplyEventInsertDedupe(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")
	created, _ := board.Create("Echoed", CreateOptions{})

	record, _ := json.Marshal(created)
	board.ApplyEvent(backend.Event{Type: backend.EventInsert, Table: "tasks", Record: record})

	if n := len(board.Tasks()); n != 1 {
		t.Errorf("after echoed insert board has %d tasks, want 1", n)
	}
}

func TestApplyEventUpdateAndDelete(t *testing.T) {
	board := NewBoard(newFakeStore(), "user-1")
	created, _ := board.Create("Remote", CreateOptions{})

	created.Title = "Renamed remotely"
	record, _ := json.Marshal(created)
	board.ApplyEvent(backend.Event{Type: backend.EventUpdate, Table: "tasks", Record: record})

	tasks := board.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Renamed remotely" {
		t.Errorf("update event not applied, got %+v", tasks)
	}

	delRecord, _ := json.Marshal(map[string]string{"id": created.ID})
	board.ApplyEvent(backend.Event{Type: backend.EventDelete, Table: "tasks", Record: delRecord})

	if n := len(board.Tasks()); n != 0 {
		t.Errorf("after delete event board has %d tasks, want 0", n)
	}
}

func TestMarkAllDoneBestEffort(t *testing.T) {
	store := newFakeStore()
	board := NewBoard(store, "user-1")

	for i := 0; i < 3; i++ {
		if _, err := board.Create(fmt.Sprintf("Task %d", i), CreateOptions{}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if failed := board.MarkAllDone(); failed != 0 {
		t.Errorf("MarkAllDone() failed = %d, want 0", failed)
	}
	if n := len(board.Column(model.StatusCompleted)); n != 3 {
		t.Errorf("completed column has %d tasks, want 3", n)
	}

	// All remote updates failing: every non-done task counts as a failure
	if _, err := board.Create("Unlucky", CreateOptions{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.failAll = true
	if failed := board.MarkAllDone(); failed != 1 {
		t.Errorf("MarkAllDone() failed = %d, want 1", failed)
	}
}

// One failing remote update partway through the loop must not stop the
// remaining tasks from updating.
func TestMarkAllDoneContinuesPastFailure(t *testing.T) {
	store := newFakeStore()
	board := NewBoard(store, "user-1")

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		created, err := board.Create(fmt.Sprintf("Task %d", i), CreateOptions{})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, created.ID)
	}
	store.failIDs[ids[1]] = true

	if failed := board.MarkAllDone(); failed != 1 {
		t.Errorf("MarkAllDone() failed = %d, want 1", failed)
	}

	for _, task := range board.Tasks() {
		if task.ID == ids[1] {
			if task.Done {
				t.Error("failing task should keep its previous state")
			}
			continue
		}
		if !task.Done {
			t.Errorf("task %s not done after MarkAllDone", task.ID)
		}
	}
	if n := len(board.Column(model.StatusCompleted)); n != 4 {
		t.Errorf("completed column has %d tasks, want 4", n)
	}
}

func TestClearAllContinuesPastFailure(t *testing.T) {
	store := newFakeStore()
	board := NewBoard(store, "user-1")

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		created, err := board.Create(fmt.Sprintf("Task %d", i), CreateOptions{})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, created.ID)
	}
	store.failIDs[ids[2]] = true

	if failed := board.ClearAll(); failed != 1 {
		t.Errorf("ClearAll() failed = %d, want 1", failed)
	}

	remaining := board.Tasks()
	if len(remaining) != 1 || remaining[0].ID != ids[2] {
		t.Errorf("remaining tasks = %+v, want only %s", remaining, ids[2])
	}
}

func TestClearAllBestEffort(t *testing.T) {
	store := newFakeStore()
	board := NewBoard(store, "user-1")

	for i := 0; i < 3; i++ {
		if _, err := board.Create(fmt.Sprintf("Task %d", i), CreateOptions{}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if failed := board.ClearAll(); failed != 0 {
		t.Errorf("ClearAll() failed = %d, want 0", failed)
	}
	if n := len(board.Tasks()); n != 0 {
		t.Errorf("board has %d tasks after clear, want 0", n)
	}
}
