package kanban

import (
	"fmt"
	"sync"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// ColumnIDs is the fixed column order of the board
var ColumnIDs = []string{model.StatusPending, model.StatusInProgress, model.StatusCompleted}

// Store is the slice of the backend client the board needs
type Store interface {
	ListTasks() ([]model.Task, error)
	InsertTask(t model.Task) (model.Task, error)
	UpdateTask(t model.Task) (model.Task, error)
	DeleteTask(id string) error
}

// CreateOptions are the optional fields for a new task
type CreateOptions struct {
	Description string
	Priority    string
	Status      string
}

// Board keeps the user's tasks in sync with the backend. Every task is
// in exactly one column at any time, derived from (status, done): done
// tasks are in the completed column regardless of status, the rest sit
// in the column named by their status.
type Board struct {
	store  Store
	userID string

	mu    sync.Mutex
	tasks []model.Task
}

// NewBoard creates a board for the given user
func NewBoard(store Store, userID string) *Board {
	return &Board{store: store, userID: userID}
}

// Refresh replaces the local task list with the backend's copy
func (b *Board) Refresh() error {
	tasks, err := b.store.ListTasks()
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	return nil
}

// Tasks returns a copy of the loaded tasks
func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Column returns the tasks currently in the named column
func (b *Board) Column(id string) []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []model.Task
	for _, t := range b.tasks {
		if t.Column() == id {
			out = append(out, t)
		}
	}
	return out
}

// Columns returns all tasks grouped by column id
func (b *Board) Columns() map[string][]model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string][]model.Task, len(ColumnIDs))
	for _, id := range ColumnIDs {
		out[id] = nil
	}
	for _, t := range b.tasks {
		col := t.Column()
		out[col] = append(out[col], t)
	}
	return out
}

// Create inserts a new task remotely, then prepends the echoed row with
// its generated id. Title is required; priority defaults to medium and
// status to pending.
func (b *Board) Create(title string, opts CreateOptions) (model.Task, error) {
	if title == "" {
		return model.Task{}, fmt.Errorf("title is required")
	}

	t := model.NewTask("", b.userID, title)
	t.Description = opts.Description
	if model.ValidPriority(opts.Priority) {
		t.Priority = opts.Priority
	}
	if model.ValidStatus(opts.Status) {
		t.Status = opts.Status
		t.Done = opts.Status == model.StatusCompleted
	}

	created, err := b.store.InsertTask(t)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	b.prependIfAbsent(created)
	return created, nil
}

// Move reassigns a task to a column: status becomes the column id and
// done is true only for the completed column. Local state is patched
// from the server-returned row, not the locally-guessed values.
func (b *Board) Move(id, column string) (model.Task, error) {
	if !model.ValidStatus(column) {
		return model.Task{}, fmt.Errorf("unknown column %q", column)
	}

	t, ok := b.find(id)
	if !ok {
		return model.Task{}, fmt.Errorf("task %s not loaded", id)
	}

	t.Status = column
	t.Done = column == model.StatusCompleted

	updated, err := b.store.UpdateTask(t)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to move task: %w", err)
	}

	b.replace(updated)
	return updated, nil
}

// ToggleDone inverts a task's done flag, moving it between the completed
// and pending columns under the same membership rule as Move.
func (b *Board) ToggleDone(id string) (model.Task, error) {
	t, ok := b.find(id)
	if !ok {
		return model.Task{}, fmt.Errorf("task %s not loaded", id)
	}

	t.Done = !t.Done
	if t.Done {
		t.Status = model.StatusCompleted
	} else {
		t.Status = model.StatusPending
	}

	updated, err := b.store.UpdateTask(t)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	b.replace(updated)
	return updated, nil
}

// Delete removes a task remotely, then locally by id
func (b *Board) Delete(id string) error {
	if err := b.store.DeleteTask(id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	b.remove(id)
	return nil
}

// MarkAllDone marks every loaded, non-done task as done with one
// sequential remote update per task. Best-effort: a failed update is
// logged and skipped, prior updates stay applied. Returns the number of
// failures.
func (b *Board) MarkAllDone() int {
	failed := 0
	for _, t := range b.Tasks() {
		if t.Done {
			continue
		}

		t.Done = true
		t.Status = model.StatusCompleted

		updated, err := b.store.UpdateTask(t)
		if err != nil {
			logger.Error("Failed to mark task done", logger.F("id", t.ID), logger.F("error", err))
			failed++
			continue
		}
		b.replace(updated)
	}
	return failed
}

// ClearAll deletes every loaded task with one sequential remote call per
// task. Best-effort, same failure semantics as MarkAllDone.
func (b *Board) ClearAll() int {
	failed := 0
	for _, t := range b.Tasks() {
		if err := b.store.DeleteTask(t.ID); err != nil {
			logger.Error("Failed to delete task", logger.F("id", t.ID), logger.F("error", err))
			failed++
			continue
		}
		b.remove(t.ID)
	}
	return failed
}

// ApplyEvent folds a realtime row change into local state. Inserts are
// deduplicated by id so the echo of this client's own write never
// produces a duplicate; updates replace by id; deletes remove by id.
func (b *Board) ApplyEvent(ev backend.Event) {
	switch ev.Type {
	case backend.EventInsert:
		t, err := ev.Task()
		if err != nil {
			logger.Warn("Bad task insert payload", logger.F("error", err))
			return
		}
		b.prependIfAbsent(t)
	case backend.EventUpdate:
		t, err := ev.Task()
		if err != nil {
			logger.Warn("Bad task update payload", logger.F("error", err))
			return
		}
		b.replace(t)
	case backend.EventDelete:
		b.remove(ev.RecordID())
	}
}

func (b *Board) find(id string) (model.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (b *Board) prependIfAbsent(t model.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.tasks {
		if existing.ID == t.ID {
			return
		}
	}
	b.tasks = append([]model.Task{t}, b.tasks...)
}

func (b *Board) replace(t model.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == t.ID {
			b.tasks[i] = t
			return
		}
	}
}

func (b *Board) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			return
		}
	}
}
