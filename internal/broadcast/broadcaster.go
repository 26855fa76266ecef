// Package broadcast is the in-process publish-subscribe channel: a tagged
// union of Vitals/Alert/Heartbeat events, fanned out to many subscribers
// with bounded, per-subscriber buffers and fire-and-forget semantics (no
// replay, no acknowledgement).
package broadcast

import (
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// EventType tags the union carried on the channel.
type EventType string

const (
	EventVitals    EventType = "vitals"
	EventAlert     EventType = "alert"
	EventHeartbeat EventType = "heartbeat"
)

// Event is the tagged union carried to subscribers. Exactly one of Vitals,
// Alert, or HeartbeatAt is meaningful, selected by Type.
type Event struct {
	Type        EventType
	Vitals      interface{}
	Alert       interface{}
	HeartbeatAt int64
}

const defaultBufferSize = 100

// Broadcaster is the process-wide pub/sub singleton.
type Broadcaster struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]chan Event
	bufferSize  int
}

// New constructs a Broadcaster with the default per-subscriber buffer size.
func New() *Broadcaster {
	return NewWithBuffer(defaultBufferSize)
}

func NewWithBuffer(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Broadcaster{subscribers: make(map[uint64]chan Event), bufferSize: bufferSize}
}

// Subscription is a live subscriber's receive end plus its release handle.
type Subscription struct {
	id   uint64
	b    *Broadcaster
	ch   chan Event
	once sync.Once
}

// Events exposes the receive-only channel for the subscriber's event loop.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close releases the subscription. Safe to call multiple times; a dropped
// subscriber must never leak its buffer.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.unsubscribe(s.id)
	})
}

// Subscribe attaches a new subscriber with its own bounded buffer.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch
	return &Subscription{id: id, b: b, ch: ch}
}

func (b *Broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers event to every current subscriber without blocking. A
// subscriber whose buffer is full is considered lagging and is dropped: its
// channel is closed and it is removed, so neither this publish nor any
// other subscriber is ever blocked by a slow consumer.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logx.Errorf("broadcaster: subscriber %d lagging, dropping connection", id)
			delete(b.subscribers, id)
			close(ch)
		}
	}
}

// SubscriberCount reports the current live subscriber count, useful for
// health/metrics reporting.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
