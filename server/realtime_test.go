package server

import "testing"

func TestHubFiltersByUserAndTable(t *testing.T) {
	hub := NewHub()

	match := hub.subscribe("user-1", "tasks")
	otherUser := hub.subscribe("user-2", "tasks")
	otherTable := hub.subscribe("user-1", "invoices")
	defer hub.unsubscribe(match)
	defer hub.unsubscribe(otherUser)
	defer hub.unsubscribe(otherTable)

	hub.Publish("user-1", "tasks", "insert", map[string]string{"id": "t1"})

	select {
	case ev := <-match.ch:
		if ev.Type != "insert" {
			t.Errorf("event type = %q, want insert", ev.Type)
		}
	default:
		t.Fatal("matching subscriber received nothing")
	}

	select {
	case <-otherUser.ch:
		t.Error("subscriber for another user received the event")
	default:
	}

	select {
	case <-otherTable.ch:
		t.Error("subscriber for another table received the event")
	default:
	}
}

// A full subscriber channel must never block the publishing handler.
func TestPublishSkipsSlowSubscriber(t *testing.T) {
	hub := NewHub()

	slow := hub.subscribe("user-1", "tasks")
	defer hub.unsubscribe(slow)

	for i := 0; i < cap(slow.ch)+10; i++ {
		hub.Publish("user-1", "tasks", "insert", map[string]int{"n": i})
	}

	if len(slow.ch) != cap(slow.ch) {
		t.Errorf("channel holds %d events, want %d (rest dropped)", len(slow.ch), cap(slow.ch))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	sub := hub.subscribe("user-1", "tasks")
	hub.unsubscribe(sub)

	hub.Publish("user-1", "tasks", "delete", map[string]string{"id": "t1"})

	select {
	case <-sub.ch:
		t.Error("unsubscribed channel received an event")
	default:
	}
}
