package model

import "time"

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses, matching the three board columns
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task represents a single kanban item
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a new task with defaults
func NewTask(id, userID, title string) Task {
	now := time.Now()
	return Task{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Priority:  PriorityMedium,
		Status:    StatusPending,
		Done:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Column returns the board column the task belongs to. A done task lives
// in the completed column regardless of status; otherwise the column is
// named by the status itself.
func (t *Task) Column() string {
	if t.Done {
		return StatusCompleted
	}
	return t.Status
}

// ValidPriority reports whether p is a known priority
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidStatus reports whether s is a known status
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}
