package services

import (
	"sync"

	"teamboard/internal/models"
)

// Broadcast event types. projectCreated is the only global event; everything
// else is scoped to the affected project's channel.
const (
	EventProjectCreated = "projectCreated"
	EventProjectUpdated = "projectUpdated"
	EventProjectDeleted = "projectDeleted"
	EventMemberAdded    = "memberAdded"
	EventMemberRemoved  = "memberRemoved"
	EventTaskCreated    = "taskCreated"
	EventTaskUpdated    = "taskUpdated"
	EventTaskDeleted    = "taskDeleted"
	EventCommentAdded   = "commentAdded"
)

// Event is one committed mutation as seen by subscribers. ProjectID selects
// the project-scoped channel; zero means the global channel.
type Event struct {
	Type      string      `json:"type"`
	ProjectID uint        `json:"project_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Payloads for events that carry ids rather than full aggregates.
type ProjectDeletedPayload struct {
	ProjectID uint `json:"project_id"`
}

type MemberPayload struct {
	ProjectID uint `json:"project_id"`
	UserID    uint `json:"user_id"`
}

type TaskDeletedPayload struct {
	TaskID uint `json:"task_id"`
}

type CommentAddedPayload struct {
	TaskID  uint            `json:"task_id"`
	Comment *models.Comment `json:"comment"`
}

// Publisher hands committed mutation events to the broadcast router. It is
// injected into the mutation services at construction time.
type Publisher interface {
	Publish(Event)
}

// NopPublisher discards events; useful where no broadcasting is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

type hubClient struct {
	ch       chan Event
	projects map[uint]struct{}
}

// Hub routes events to subscriber channels. Delivery is best-effort and
// at-most-once: sends never block, a slow subscriber just misses events, and
// nothing is retained for late joiners.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*hubClient
}

var _ Publisher = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*hubClient)}
}

// Subscribe registers a client joined to the global channel plus the given
// project channels and returns its event channel. The channel set is fixed
// for the life of the subscription; a client that wants updated membership
// reconnects.
func (h *Hub) Subscribe(clientID string, projectIDs []uint) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	projects := make(map[uint]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		projects[id] = struct{}{}
	}

	// A re-used id replaces the old subscription; close its channel so the
	// previous reader's receive loop terminates
	if old, ok := h.clients[clientID]; ok {
		close(old.ch)
	}

	// Buffered so publishers never wait on subscribers
	client := &hubClient{
		ch:       make(chan Event, 100),
		projects: projects,
	}
	h.clients[clientID] = client
	return client.ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		close(client.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers ev to every subscriber of its channel: all clients for a
// global event, only clients joined to the project channel otherwise.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if ev.ProjectID != 0 {
			if _, joined := client.projects[ev.ProjectID]; !joined {
				continue
			}
		}
		select {
		case client.ch <- ev:
		default:
			// Client buffer full, drop the event
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
