// Package events provides fan-out of pipeline progress messages to live subscribers.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Kind tags an event for the progress stream.
type Kind string

// Event kinds understood by the front-end.
const (
	KindProgress Kind = "progress"
	KindCaptcha  Kind = "captcha"
	KindError    Kind = "error"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Event is a single progress message. Events are never persisted or replayed.
type Event struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

// Publisher is the write side of the broker, as seen by the pipeline.
type Publisher interface {
	Publish(event Event)
}

// Subscription is a live registration on a Broker.
type Subscription struct {
	id     uint64
	ch     chan Event
	once   sync.Once
	broker *Broker
}

// Events returns the channel on which published events are delivered.
// The channel is closed when the subscription is removed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Broker keeps the current subscriber set and delivers events to it.
// Safe for concurrent use.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	order   []uint64
	nextID  uint64
	buffer  int
	dropped atomic.Int64
}

// NewBroker creates an empty broker. A non-positive buffer uses DefaultBuffer.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a new sink for events published from now on.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		ch:     make(chan Event, b.buffer),
		broker: b,
	}
	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
// Calling it more than once, or with nil, is a no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.broker != b {
		return
	}

	b.mu.Lock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		for i, id := range b.order {
			if id == sub.id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	b.mu.Unlock()

	// Publish holds the read lock while sending, so the channel is only closed
	// once no sender can still reach it.
	sub.once.Do(func() { close(sub.ch) })
}

// Publish delivers event to every current subscriber in registration order.
// A subscriber whose buffer is full misses the event; delivery to the rest continues.
func (b *Broker) Publish(event Event) {
	zap.L().Debug("progress event",
		zap.String("type", string(event.Type)),
		zap.String("message", event.Message),
	)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, id := range b.order {
		sub := b.subs[id]
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Len returns the number of current subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Progress builds a progress event.
func Progress(format string, args ...any) Event {
	return Event{Type: KindProgress, Message: fmt.Sprintf(format, args...)}
}

// Captcha builds a captcha event.
func Captcha(message string) Event {
	return Event{Type: KindCaptcha, Message: message}
}

// Error builds an error event.
func Error(format string, args ...any) Event {
	return Event{Type: KindError, Message: fmt.Sprintf(format, args...)}
}
