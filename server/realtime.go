package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// changeEvent is a row-change notification published to subscribers
type changeEvent struct {
	Type   string
	Record interface{}
}

type subscriber struct {
	userID string
	table  string
	ch     chan changeEvent
}

// Hub fans row-change events out to realtime subscribers. Channels are
// filtered by table and the subscriber's user id.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

func (h *Hub) subscribe(userID, table string) *subscriber {
	sub := &subscriber{
		userID: userID,
		table:  table,
		ch:     make(chan changeEvent, 16),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Publish delivers a row change to every matching subscriber. Slow
// subscribers are skipped rather than blocking the mutating handler.
func (h *Hub) Publish(userID, table, eventType string, record interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.userID != userID || sub.table != table {
			continue
		}
		select {
		case sub.ch <- changeEvent{Type: eventType, Record: record}:
		default:
		}
	}
}

// publish is a convenience wrapper for the mutating handlers
func (s *Server) publish(c echo.Context, table, eventType string, record interface{}) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return
	}
	s.hub.Publish(userID, table, eventType, record)
}

var realtimeTables = map[string]bool{
	"tasks":         true,
	"invoices":      true,
	"notifications": true,
}

// handleRealtime streams row changes for one table as server-sent
// events, filtered to the authenticated user.
func (s *Server) handleRealtime(c echo.Context) error {
	table := c.QueryParam("table")
	if !realtimeTables[table] {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown table"})
	}

	userID := c.Get("user_id").(string)
	sub := s.hub.subscribe(userID, table)
	defer s.hub.unsubscribe(sub)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ping.C:
			if _, err := fmt.Fprint(res, "event: ping\ndata: {}\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev := <-sub.ch:
			data, err := json.Marshal(ev.Record)
			if err != nil {
				c.Logger().Error("event marshal error:", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
