package model

import "testing"

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask("id-1", "user-1", "Buy milk")

	if task.Priority != PriorityMedium {
		t.Errorf("NewTask priority = %q, want %q", task.Priority, PriorityMedium)
	}
	if task.Status != StatusPending {
		t.Errorf("NewTask status = %q, want %q", task.Status, StatusPending)
	}
	if task.Done {
		t.Error("NewTask should not be done")
	}
}

func TestTaskColumn(t *testing.T) {
	tests := []struct {
		name   string
		status string
		done   bool
		want   string
	}{
		{"pending not done", StatusPending, false, StatusPending},
		{"in progress not done", StatusInProgress, false, StatusInProgress},
		{"completed status", StatusCompleted, false, StatusCompleted},
		{"done overrides pending", StatusPending, true, StatusCompleted},
		{"done overrides in progress", StatusInProgress, true, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{Status: tt.status, Done: tt.done}
			if got := task.Column(); got != tt.want {
				t.Errorf("Column() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusCompleted} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("ValidStatus(\"archived\") = true, want false")
	}
	if ValidStatus("") {
		t.Error("ValidStatus(\"\") = true, want false")
	}
}
