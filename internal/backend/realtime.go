package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// EventType identifies a row change kind
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is a row-change notification delivered on a realtime channel.
// For deletes the record carries only the row id.
type Event struct {
	Type   EventType       `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Task decodes the event record as a task row
func (e Event) Task() (model.Task, error) {
	var t model.Task
	err := json.Unmarshal(e.Record, &t)
	return t, err
}

// Notification decodes the event record as a notification row
func (e Event) Notification() (model.Notification, error) {
	var n model.Notification
	err := json.Unmarshal(e.Record, &n)
	return n, err
}

// RecordID extracts the row id from the event record
func (e Event) RecordID() string {
	var row struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(e.Record, &row)
	return row.ID
}

// Subscription is a realtime channel filtered by table and the
// authenticated user. Events arrives as server-sent events; the stream
// reconnects automatically until the context is cancelled.
type Subscription struct {
	Events <-chan Event
	cancel context.CancelFunc
}

// Close tears the subscription down
func (s *Subscription) Close() {
	s.cancel()
}

// Subscribe opens a realtime channel for row changes on a table
func (c *Client) Subscribe(ctx context.Context, table string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		for {
			if err := c.stream(ctx, table, events); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Realtime stream dropped, reconnecting",
					logger.F("table", table), logger.F("error", err))
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
		}
	}()

	return &Subscription{Events: events, cancel: cancel}
}

// stream consumes one SSE connection until it drops or ctx is cancelled
func (c *Client) stream(ctx context.Context, table string, events chan<- Event) error {
	url := c.config.ServerURL + "/api/v1/realtime?table=" + table
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, nil)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			if eventType == "" || eventType == "ping" {
				continue
			}

			ev := Event{Type: EventType(eventType), Table: table, Record: json.RawMessage(data)}
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case line == "":
			eventType = ""
		}
	}
	return scanner.Err()
}
