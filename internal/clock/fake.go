package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Time only moves when Advance is
// called. Pending sleeps due at or before the new time are completed
// strictly in the order they were scheduled, so tests can assert exact
// interleavings.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextSeq int
	timers  []*fakeTimer
}

type fakeTimer struct {
	seq      int
	deadline time.Time
	fire     func() // runs under the Fake's lock, in scheduling order
	fired    bool
}

// NewFake returns a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the simulated current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep blocks until Advance moves the clock past the deadline, or until
// ctx is cancelled.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	t := f.schedule(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		f.remove(t)
		return ctx.Err()
	}
}

// AfterFunc schedules fn to run when Advance reaches the deadline. Fired
// callbacks run synchronously inside Advance, in scheduling order.
func (f *Fake) AfterFunc(d time.Duration, fn func()) {
	f.schedule(d, fn)
}

// Advance moves the clock forward by d, firing every pending timer whose
// deadline is at or before the new time, in the order they were
// scheduled, before returning.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.now.Add(d)
	for {
		t := f.nextDue(target)
		if t == nil {
			break
		}
		if t.deadline.After(f.now) {
			f.now = t.deadline
		}
		t.fired = true
		t.fire()
	}
	f.now = target
	f.compact()
}

// PendingSleeps reports how many sleeps are currently waiting on Advance.
func (f *Fake) PendingSleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.fired {
			n++
		}
	}
	return n
}

func (f *Fake) schedule(d time.Duration, fn func()) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{
		seq:      f.nextSeq,
		deadline: f.now.Add(d),
		fire:     fn,
	}
	f.nextSeq++
	f.timers = append(f.timers, t)
	return t
}

func (f *Fake) remove(t *fakeTimer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cand := range f.timers {
		if cand == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// nextDue returns the unfired timer with the lowest scheduling sequence
// whose deadline is at or before target.
func (f *Fake) nextDue(target time.Time) *fakeTimer {
	var best *fakeTimer
	for _, t := range f.timers {
		if t.fired || t.deadline.After(target) {
			continue
		}
		if best == nil || t.seq < best.seq {
			best = t
		}
	}
	return best
}

func (f *Fake) compact() {
	remaining := f.timers[:0]
	for _, t := range f.timers {
		if !t.fired {
			remaining = append(remaining, t)
		}
	}
	f.timers = remaining
}
