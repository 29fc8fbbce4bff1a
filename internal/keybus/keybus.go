// Package keybus provides an ordered, timestamped stream of input events.
//
// Keystrokes (or virtual button presses) are pushed in arrival order.
// Consumers claim events with TakeUntil; a claimed event is consumed and
// never matches a second call. The bus is the single point where
// asynchronous input meets the trainer's suspension model.
package keybus

import (
	"context"
	"sync"
	"time"
)

// Event is one discrete input: a key pressed at a point in time.
type Event struct {
	At  time.Time
	Key string
}

// Bus is an ordered stream of input events with predicate-based claiming.
type Bus struct {
	mu      sync.Mutex
	pending []Event
	waiters []*waiter
	nextID  int
}

type waiter struct {
	id    int
	match func(Event) bool
	ch    chan Event
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Push appends an event. If a waiter registered earlier matches it, the
// event is delivered to that waiter (earliest registration first) and
// consumed immediately; otherwise it stays pending in arrival order.
func (b *Bus) Push(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.waiters {
		if w.match(ev) {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			w.ch <- ev
			return
		}
	}
	b.pending = append(b.pending, ev)
}

// TakeUntil resolves with the first unconsumed event matching pred, in
// arrival order, consuming it. Events pushed before the call are
// considered first. If ctx is cancelled before a match arrives, the
// waiter is deregistered and ctx.Err() is returned.
func (b *Bus) TakeUntil(ctx context.Context, pred func(Event) bool) (Event, error) {
	b.mu.Lock()
	for i, ev := range b.pending {
		if pred(ev) {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			b.mu.Unlock()
			return ev, nil
		}
	}
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return Event{}, err
	}
	w := &waiter{
		id:    b.nextID,
		match: pred,
		ch:    make(chan Event, 1),
	}
	b.nextID++
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case ev := <-w.ch:
		return ev, nil
	case <-ctx.Done():
		b.deregister(w)
		// A push may have delivered concurrently with cancellation. A
		// cancelled call must not consume input, so hand the event back.
		select {
		case ev := <-w.ch:
			b.requeue(ev)
		default:
		}
		return Event{}, ctx.Err()
	}
}

// requeue returns an event claimed by a cancelled waiter to the pending
// queue, keeping the stream ordered by arrival time.
func (b *Bus) requeue(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos := len(b.pending)
	for i, cand := range b.pending {
		if ev.At.Before(cand.At) {
			pos = i
			break
		}
	}
	b.pending = append(b.pending, Event{})
	copy(b.pending[pos+1:], b.pending[pos:])
	b.pending[pos] = ev
}

// UndoLast removes the most recent unconsumed event (backspace
// semantics). Consumed events and the order of the remainder are
// unaffected. It reports whether an event was removed.
func (b *Bus) UndoLast() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return false
	}
	b.pending = b.pending[:len(b.pending)-1]
	return true
}

// Pending reports how many unconsumed events are queued.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bus) deregister(w *waiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cand := range b.waiters {
		if cand == w {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return
		}
	}
}
