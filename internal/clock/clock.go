// Package clock abstracts time for deterministic testing.
//
// Production code injects Real(); tests inject NewFake() and drive time
// with Advance. Every suspension in the trainer goes through a Clock, so
// host time and simulated time are interchangeable.
package clock

import (
	"context"
	"time"
)

// Clock provides the current time and a cancellable suspension primitive.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for at least duration d, or until ctx is cancelled,
	// in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
