package stream

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one message fanned out to subscribers.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	dropped uint64
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]chan Event{}}
}

// Subscribe registers a buffered channel. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(eventType string, data any) {
	if h == nil {
		return
	}
	ev := Event{Type: eventType, At: time.Now().UTC(), Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return atomic.LoadUint64(&h.dropped)
}
