// Package events implements the blackboard's internal notification bus:
// a target-routed publish/subscribe channel that lets the dashboard (or
// a log tailer) observe a run without polling the blackboard.
package events

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Subscription is one registered listener: a channel plus the filter that
// decides which published events it receives.
type Subscription struct {
	Ch     chan Event
	Types  []EventType // nil/empty means every type
	Target string
}

// Backpressure configuration: a slow subscriber (a stalled dashboard
// websocket, say) gets a few short retries before its event is dropped
// rather than blocking the publisher, since publishing happens inline on
// every blackboard mutation.
const (
	MaxBackpressureRetries = 3
	BackpressureRetryDelay = 10 * time.Millisecond
)

// Bus fans published events out to every subscription whose target and
// type filter match. There is no persistence: the bus is purely an
// in-run observability feed, never load-bearing for correctness (see
// blackboard.Blackboard, which commits every mutation to its own locked
// state before publishing).
type Bus struct {
	mu            sync.RWMutex
	subscribers   map[string][]*Subscription
	droppedEvents uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]*Subscription)}
}

// Subscribe registers a listener for target (or "all" for a broadcast
// feed), optionally filtered to types, and returns the channel it will
// receive matching events on.
func (b *Bus) Subscribe(target string, types []EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		Ch:     make(chan Event, 100),
		Types:  types,
		Target: target,
	}
	b.subscribers[target] = append(b.subscribers[target], sub)
	return sub.Ch
}

// Unsubscribe removes the subscription backing ch for target and closes
// it. A no-op if the subscription is already gone.
func (b *Bus) Unsubscribe(target string, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, exists := b.subscribers[target]
	if !exists {
		return
	}
	for i, sub := range subs {
		if sub.Ch == ch {
			close(sub.Ch)
			b.subscribers[target] = append(subs[:i], subs[i+1:]...)
			if len(b.subscribers[target]) == 0 {
				delete(b.subscribers, target)
			}
			return
		}
	}
}

// Publish delivers event to every subscription matching its target (plus
// any "all" subscribers), or to every subscriber if event.Target == "all".
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var targetSubs []*Subscription
	if event.Target == "all" {
		for _, subs := range b.subscribers {
			targetSubs = append(targetSubs, subs...)
		}
	} else {
		targetSubs = append(targetSubs, b.subscribers[event.Target]...)
		targetSubs = append(targetSubs, b.subscribers["all"]...)
	}

	for _, sub := range targetSubs {
		if b.matchesTypes(event.Type, sub.Types) {
			b.sendWithBackpressure(sub, event)
		}
	}
}

// sendWithBackpressure tries a non-blocking send, then a few short
// retries, before logging and dropping the event. The event itself is
// never retained once dropped; there is no store to recover it from.
func (b *Bus) sendWithBackpressure(sub *Subscription, event *Event) {
	select {
	case sub.Ch <- *event:
		return
	default:
	}

	for retry := 1; retry <= MaxBackpressureRetries; retry++ {
		time.Sleep(BackpressureRetryDelay)
		select {
		case sub.Ch <- *event:
			return
		default:
		}
	}

	dropped := atomic.AddUint64(&b.droppedEvents, 1)
	log.Printf("[events] dropped event after %d retries: type=%s target=%s source=%s id=%s (total dropped: %d)",
		MaxBackpressureRetries, event.Type, event.Target, event.Source, event.ID, dropped)
}

// DroppedEventCount returns the total number of events dropped so far due
// to a full subscriber channel.
func (b *Bus) DroppedEventCount() uint64 {
	return atomic.LoadUint64(&b.droppedEvents)
}

func (b *Bus) matchesTypes(eventType EventType, types []EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}
