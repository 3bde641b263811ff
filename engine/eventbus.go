package engine

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type EventType int

type SubscriberID int

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// typeMask selects event types by bit; the zero mask selects every type.
type typeMask uint64

func maskOf(types []EventType) typeMask {
	var m typeMask
	for _, t := range types {
		m |= 1 << uint(t)
	}
	return m
}

func (m typeMask) has(t EventType) bool { return m == 0 || m&(1<<uint(t)) != 0 }

type subscriber struct {
	id   SubscriberID
	mask typeMask
	fn   func(Event)
}

// EventBus fans events out synchronously, in subscription order. The
// subscriber list is replaced on every change, so Emit runs without a lock
// and handlers may subscribe, unsubscribe or emit.
type EventBus struct {
	mu     sync.Mutex // serializes list changes
	subs   atomic.Pointer[[]subscriber]
	nextID SubscriberID
}

func NewEventBus() *EventBus {
	eb := &EventBus{}
	eb.subs.Store(&[]subscriber{})
	return eb
}

// Subscribe registers a handler for every event type.
func (eb *EventBus) Subscribe(fn func(Event)) SubscriberID {
	return eb.SubscribeTypes(fn)
}

// SubscribeTypes registers a handler for the given types, or for all when none are given.
func (eb *EventBus) SubscribeTypes(fn func(Event), types ...EventType) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	next := append(slices.Clone(*eb.subs.Load()), subscriber{id: eb.nextID, mask: maskOf(types), fn: fn})
	eb.subs.Store(&next)
	return eb.nextID
}

// Unsubscribe removes a handler. Unknown IDs are ignored.
func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(*eb.subs.Load()), func(s subscriber) bool { return s.id == id })
	eb.subs.Store(&next)
}

func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	for _, s := range *eb.subs.Load() {
		if s.mask.has(evt.Type) {
			s.fn(evt)
		}
	}
}
