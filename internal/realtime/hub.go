// Package realtime fans table change events out to connected
// subscribers. Services publish an event after every successful write;
// the hub delivers it to each subscriber whose email matches the
// event's affected users, mirroring the change-feed subscriptions the
// web client held on the todos and shared_todos tables.
package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

// Tables that emit change events.
const (
	TableTodos       = "todos"
	TableSharedTodos = "shared_todos"
	TableInvitations = "todo_invitations"
)

// Actions carried on a change event.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// SubscriberBufferSize bounds each subscriber's event queue. A
// subscriber that falls this far behind is dropped rather than
// blocking delivery to everyone else.
const SubscriberBufferSize = 50

// Event is one table change visible to a set of users.
type Event struct {
	Table  string      `json:"table"`
	Action string      `json:"action"`
	TodoID uuid.UUID   `json:"todoId"`
	Data   interface{} `json:"data,omitempty"`

	// Emails lists the users allowed to see this event: the owner and
	// every collaborator affected by the change.
	Emails []string `json:"-"`
}

// Visible reports whether the event should be delivered to the given
// subscriber email.
func (e Event) Visible(email string) bool {
	for _, allowed := range e.Emails {
		if models.EqualEmail(allowed, email) {
			return true
		}
	}
	return false
}

// Subscriber is one connected event stream.
type Subscriber struct {
	ID     uuid.UUID
	Email  string
	Events chan Event
}

// Hub routes published events to subscribers. All state is owned by
// the run loop; Subscribe/Unsubscribe/Publish communicate with it over
// channels.
type Hub struct {
	subscribe   chan *Subscriber
	unsubscribe chan uuid.UUID
	events      chan Event

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribe:   make(chan *Subscriber),
		unsubscribe: make(chan uuid.UUID),
		events:      make(chan Event, SubscriberBufferSize),
		done:        make(chan struct{}),
	}
}

// Run processes subscriptions and event delivery until ctx is
// cancelled. It must be running before Subscribe or Publish are used.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	subscribers := make(map[uuid.UUID]*Subscriber)

	defer func() {
		for _, sub := range subscribers {
			close(sub.Events)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.subscribe:
			subscribers[sub.ID] = sub
		case id := <-h.unsubscribe:
			if sub, ok := subscribers[id]; ok {
				delete(subscribers, id)
				close(sub.Events)
			}
		case ev := <-h.events:
			for id, sub := range subscribers {
				if !ev.Visible(sub.Email) {
					continue
				}
				select {
				case sub.Events <- ev:
				default:
					// Subscriber is not draining; drop it.
					log.Printf("[realtime] dropping slow subscriber %s (%s)", id, sub.Email)
					delete(subscribers, id)
					close(sub.Events)
				}
			}
		}
	}
}

// Subscribe registers a new event stream for the given email. The
// returned subscriber's Events channel is closed on Unsubscribe, on
// hub shutdown, or when the subscriber falls too far behind.
func (h *Hub) Subscribe(email string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New(),
		Email:  email,
		Events: make(chan Event, SubscriberBufferSize),
	}
	select {
	case h.subscribe <- sub:
	case <-h.done:
		close(sub.Events)
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	select {
	case h.unsubscribe <- id:
	case <-h.done:
	}
}

// Publish queues an event for delivery. It never blocks the caller:
// if the hub's queue is full the event is dropped and the client is
// expected to refetch, matching the original client's full-refresh
// fallback.
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	case <-h.done:
	default:
		log.Printf("[realtime] event queue full, dropping %s %s for todo %s", ev.Action, ev.Table, ev.TodoID)
	}
}
