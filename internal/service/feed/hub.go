package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
)

// EventType names a change applied to the book collection.
type EventType string

const (
	BookCreated EventType = "book.created"
	BookUpdated EventType = "book.updated"
	BookDeleted EventType = "book.deleted"
)

// Event describes one committed change. For deletions Book carries the removed record.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Book book.Book `json:"book"`
	At   time.Time `json:"at"`
}

// NewEvent stamps a change with a fresh id and the current time.
func NewEvent(t EventType, b book.Book) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		Book: b,
		At:   time.Now().UTC(),
	}
}

// Hub fans events out to subscribers. Publish never blocks; slow subscribers miss events.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	closed bool
	log    *zap.Logger
}

// NewHub creates a hub whose subscriber channels hold up to buffer pending events.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
		log:    logger.Named("feed"),
	}
}

// Subscribe registers a new listener. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch
	h.mu.Unlock()

	h.log.Debug("subscriber added", zap.String("subscriber", id))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
				h.log.Debug("subscriber removed", zap.String("subscriber", id))
			}
		})
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("dropping event for slow subscriber",
				zap.String("subscriber", id),
				zap.String("event", ev.ID),
				zap.String("type", string(ev.Type)),
			)
		}
	}
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscribers receive an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
