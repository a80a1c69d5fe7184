package services

import (
	"testing"
	"time"
)

func TestHub_NewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub should not return nil")
	}
	if hub.clients == nil {
		t.Error("clients map should be initialized")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("new hub should have 0 clients, got %d", hub.ClientCount())
	}
}

func TestHub_Subscribe(t *testing.T) {
	hub := NewHub()

	ch := hub.Subscribe("client1", []uint{1, 2})
	if ch == nil {
		t.Error("Subscribe should return a channel")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}

	ch2 := hub.Subscribe("client2", nil)
	if ch2 == nil {
		t.Error("Subscribe should return a channel")
	}
	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	hub.Subscribe("client1", nil)
	hub.Subscribe("client2", nil)

	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.Unsubscribe("client1")
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after unsubscribe, got %d", hub.ClientCount())
	}

	hub.Unsubscribe("nonexistent")
	if hub.ClientCount() != 1 {
		t.Errorf("unsubscribing nonexistent should not affect count, got %d", hub.ClientCount())
	}

	hub.Unsubscribe("client2")
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHub_PublishGlobal(t *testing.T) {
	hub := NewHub()

	// A global event reaches every client regardless of joined projects
	ch1 := hub.Subscribe("client1", []uint{5})
	ch2 := hub.Subscribe("client2", nil)

	hub.Publish(Event{Type: EventProjectCreated})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Type != EventProjectCreated {
				t.Errorf("client%d: Type = %q, expected %q", i+1, received.Type, EventProjectCreated)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client%d: timed out waiting for event", i+1)
		}
	}
}

func TestHub_PublishScoped(t *testing.T) {
	hub := NewHub()

	member := hub.Subscribe("member", []uint{10})
	outsider := hub.Subscribe("outsider", []uint{20})

	hub.Publish(Event{Type: EventTaskCreated, ProjectID: 10})

	select {
	case received := <-member:
		if received.ProjectID != 10 {
			t.Errorf("ProjectID = %d, expected 10", received.ProjectID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("member timed out waiting for scoped event")
	}

	select {
	case received := <-outsider:
		t.Errorf("outsider should not receive scoped event, got %v", received)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ChannelSetFixedAtSubscribe(t *testing.T) {
	hub := NewHub()

	// The subscription captured no projects; later scoped events never arrive
	ch := hub.Subscribe("client1", nil)

	hub.Publish(Event{Type: EventTaskUpdated, ProjectID: 3})

	select {
	case received := <-ch:
		t.Errorf("client should not receive events for unjoined project, got %v", received)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_NonBlockingPublish(t *testing.T) {
	hub := NewHub()

	hub.Subscribe("slow_client", []uint{1})

	// Far more events than the buffer holds; Publish must never block
	for i := 0; i < 200; i++ {
		hub.Publish(Event{Type: EventTaskUpdated, ProjectID: 1})
	}
}

func TestHub_ResubscribeClosesOldChannel(t *testing.T) {
	hub := NewHub()

	old := hub.Subscribe("client1", []uint{1})
	fresh := hub.Subscribe("client1", []uint{2})

	if hub.ClientCount() != 1 {
		t.Errorf("resubscribe should replace, got %d clients", hub.ClientCount())
	}

	// The replaced channel is closed so its reader terminates
	select {
	case _, ok := <-old:
		if ok {
			t.Error("old channel should be closed, got an event")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("old channel should be closed")
	}

	// Only the new subscription's channel set applies
	hub.Publish(Event{Type: EventTaskCreated, ProjectID: 2})
	select {
	case received := <-fresh:
		if received.ProjectID != 2 {
			t.Errorf("ProjectID = %d, expected 2", received.ProjectID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("new subscription should receive the event")
	}
}

func TestHub_PublishAfterUnsubscribe(t *testing.T) {
	hub := NewHub()

	hub.Subscribe("client1", []uint{1})
	hub.Unsubscribe("client1")

	// Must not panic on the closed channel
	hub.Publish(Event{Type: EventProjectCreated})
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = NopPublisher{}
	pub.Publish(Event{Type: EventProjectCreated})
}
