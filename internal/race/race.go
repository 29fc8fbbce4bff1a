// Package race runs competing suspending operations and settles with the
// first winner, cancelling the rest.
//
// Each arm gets a derived context that is cancelled the moment any other
// arm settles or the outer context fires. Select only returns after every
// arm has finished its cancellation cleanup, so a caller can start the
// next race knowing no arm from the previous one is still holding an
// input-bus waiter or a clock timer.
package race

import (
	"context"
	"errors"
	"time"

	"github.com/physicsrob/didah-sub001/internal/clock"
)

// ErrNoArms indicates Select was called with nothing to race.
var ErrNoArms = errors.New("select requires at least one arm")

// Arm is one competing operation. It must return promptly with ctx.Err()
// once its context is cancelled.
type Arm func(ctx context.Context) (any, error)

// Result identifies the winning arm and its value.
type Result struct {
	Index int
	Value any
}

type settled struct {
	index int
	value any
	err   error
}

// Select races the arms and returns the result of the first to settle.
// If two arms settle in the same scheduling tick, the lower index wins.
// When the outer context is cancelled before any arm settles, Select
// returns ctx.Err().
func Select(ctx context.Context, arms ...Arm) (Result, error) {
	if len(arms) == 0 {
		return Result{}, ErrNoArms
	}
	armCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan settled, len(arms))
	for i, arm := range arms {
		go func(index int, arm Arm) {
			value, err := arm(armCtx)
			results <- settled{index: index, value: value, err: err}
		}(i, arm)
	}

	// Wait for the first real settle (anything but a cancellation unwind),
	// then cancel the rest and collect every arm before picking a winner.
	collected := make([]settled, 0, len(arms))
	received := 0
	for received < len(arms) {
		s := <-results
		received++
		collected = append(collected, s)
		if !isCancellation(s.err) {
			break
		}
	}
	cancel()
	for received < len(arms) {
		collected = append(collected, <-results)
		received++
	}

	winner := pickWinner(collected)
	if winner == nil {
		return Result{}, ctx.Err()
	}
	return Result{Index: winner.index, Value: winner.value}, winner.err
}

// ClockTimeout returns an arm that resolves with value after d has
// elapsed on the given clock. It is cancellable like any other arm.
func ClockTimeout(c clock.Clock, d time.Duration, value any) Arm {
	return func(ctx context.Context) (any, error) {
		if err := c.Sleep(ctx, d); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// pickWinner returns the lowest-index settle that was not a cancellation
// unwind, or nil when every arm was cancelled.
func pickWinner(collected []settled) *settled {
	var winner *settled
	for i := range collected {
		s := &collected[i]
		if isCancellation(s.err) {
			continue
		}
		if winner == nil || s.index < winner.index {
			winner = s
		}
	}
	return winner
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
