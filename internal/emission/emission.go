// Package emission drives one character of Practice mode: play the
// character's audio, then race the learner's keystroke against the
// recognition window and report exactly one outcome.
package emission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/journal"
	"github.com/physicsrob/didah-sub001/internal/keybus"
	"github.com/physicsrob/didah-sub001/internal/morse"
	"github.com/physicsrob/didah-sub001/internal/race"
)

// Outcome is the terminal state of one emission.
type Outcome string

// Terminal outcomes.
const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
)

// Player is the audio collaborator. PlayChar returns once playback
// audibly completes; a device error is non-fatal to the emission.
// StopAudio silences any in-flight tone and is a no-op otherwise.
type Player interface {
	PlayChar(ctx context.Context, char string, wpm float64) error
	StopAudio(ctx context.Context) error
}

// Feedback receives a fire-and-forget cue for each settled outcome.
type Feedback interface {
	Trigger(outcome Outcome, char string)
}

// NopFeedback discards cues.
type NopFeedback struct{}

// Trigger implements Feedback.
func (NopFeedback) Trigger(Outcome, string) {}

// Result reports how one emission settled. Got is the mistyped key for
// incorrect outcomes; LatencyMs is measured from race start for correct
// outcomes.
type Result struct {
	Char      string
	Outcome   Outcome
	LatencyMs int64
	Got       string
}

// Config holds the timing parameters for a practice session.
type Config struct {
	WPM  float64
	Tier morse.Tier
}

// Machine runs emissions sequentially over a shared clock, input bus,
// and journal. It is the journal's single writer.
type Machine struct {
	clock    clock.Clock
	bus      *keybus.Bus
	player   Player
	feedback Feedback
	journal  *journal.Journal
	cfg      Config
	warnf    func(format string, args ...any)
}

// New validates the timing configuration and builds a Machine.
func New(c clock.Clock, bus *keybus.Bus, player Player, feedback Feedback, jnl *journal.Journal, cfg Config) (*Machine, error) {
	if _, err := morse.DitMs(cfg.WPM); err != nil {
		return nil, err
	}
	if _, err := morse.RecognitionWindowMs(cfg.Tier, cfg.WPM); err != nil {
		return nil, err
	}
	if feedback == nil {
		feedback = NopFeedback{}
	}
	return &Machine{
		clock:    c,
		bus:      bus,
		player:   player,
		feedback: feedback,
		journal:  jnl,
		cfg:      cfg,
		warnf:    defaultWarnf,
	}, nil
}

// Run plays one character and races the learner's response against the
// recognition window. It returns a non-nil error only when ctx was
// cancelled; every other path settles with exactly one outcome and one
// terminal journal entry.
func (m *Machine) Run(ctx context.Context, char string) (Result, error) {
	m.journal.Emission(m.clock.Now(), char)

	if char == " " {
		return m.runWordGap(ctx)
	}

	if err := m.player.PlayChar(ctx, char, m.cfg.WPM); err != nil {
		if isCancellation(err) {
			return Result{}, err
		}
		// A broken audio device must never block or skip a character;
		// the recognition window still opens on time.
		m.warnf("audio playback failed for %q: %v\n", char, err)
	}

	windowMs, err := morse.RecognitionWindowMs(m.cfg.Tier, m.cfg.WPM)
	if err != nil {
		return Result{}, err
	}
	window := time.Duration(windowMs * float64(time.Millisecond))
	raceStart := m.clock.Now()

	res, err := race.Select(ctx,
		func(ctx context.Context) (any, error) {
			return m.bus.TakeUntil(ctx, func(ev keybus.Event) bool {
				return isAlphabetKey(ev.Key) && strings.EqualFold(ev.Key, char)
			})
		},
		func(ctx context.Context) (any, error) {
			return m.bus.TakeUntil(ctx, func(ev keybus.Event) bool {
				return isAlphabetKey(ev.Key) && !strings.EqualFold(ev.Key, char)
			})
		},
		race.ClockTimeout(m.clock, window, nil),
	)
	if err != nil {
		return Result{}, err
	}
	return m.finish(ctx, char, raceStart, res), nil
}

func (m *Machine) runWordGap(ctx context.Context) (Result, error) {
	// Inter-word gaps expect no input: auto-resolve correct after the
	// silence slot, bypassing the race.
	gapMs, err := morse.CharDurationMs(' ', m.cfg.WPM, 0)
	if err != nil {
		return Result{}, err
	}
	if err := m.clock.Sleep(ctx, time.Duration(gapMs*float64(time.Millisecond))); err != nil {
		return Result{}, err
	}
	m.journal.Correct(m.clock.Now(), " ", 0)
	return Result{Char: " ", Outcome: OutcomeCorrect}, nil
}

func (m *Machine) finish(ctx context.Context, char string, raceStart time.Time, res race.Result) Result {
	now := m.clock.Now()
	switch res.Index {
	case 0:
		ev := res.Value.(keybus.Event)
		latency := ev.At.Sub(raceStart).Milliseconds()
		m.stopAudio(ctx)
		m.journal.Correct(ev.At, char, latency)
		m.feedback.Trigger(OutcomeCorrect, char)
		return Result{Char: char, Outcome: OutcomeCorrect, LatencyMs: latency}
	case 1:
		ev := res.Value.(keybus.Event)
		m.stopAudio(ctx)
		m.journal.Incorrect(ev.At, char, ev.Key)
		m.feedback.Trigger(OutcomeIncorrect, char)
		return Result{Char: char, Outcome: OutcomeIncorrect, Got: ev.Key}
	default:
		m.journal.Timeout(now, char)
		m.feedback.Trigger(OutcomeTimeout, char)
		return Result{Char: char, Outcome: OutcomeTimeout}
	}
}

func (m *Machine) stopAudio(ctx context.Context) {
	if err := m.player.StopAudio(ctx); err != nil && !isCancellation(err) {
		m.warnf("failed to stop audio: %v\n", err)
	}
}

// isAlphabetKey reports whether the key is a single character the
// trainer can transmit; other keys (arrows, modifiers) never settle a
// race arm.
func isAlphabetKey(key string) bool {
	runes := []rune(key)
	return len(runes) == 1 && morse.Known(runes[0])
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func defaultWarnf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
