package backend

import (
	"encoding/json"
	"testing"
)

func TestEventTaskDecode(t *testing.T) {
	ev := Event{
		Type:   EventInsert,
		Table:  "tasks",
		Record: json.RawMessage(`{"id":"t1","title":"Buy milk","status":"pending","done":false}`),
	}

	task, err := ev.Task()
	if err != nil {
		t.Fatalf("Task() error = %v", err)
	}
	if task.ID != "t1" || task.Title != "Buy milk" {
		t.Errorf("Task() = %+v", task)
	}
}

func TestEventRecordID(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
	}{
		{"delete payload", `{"id":"abc"}`, "abc"},
		{"full row", `{"id":"xyz","title":"T"}`, "xyz"},
		{"missing id", `{"title":"T"}`, ""},
		{"invalid json", `nope`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Record: json.RawMessage(tt.record)}
			if got := ev.RecordID(); got != tt.want {
				t.Errorf("RecordID() = %q, want %q", got, tt.want)
			}
		})
	}
}
