package emission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/physicsrob/didah-sub001/internal/audio"
	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/journal"
	"github.com/physicsrob/didah-sub001/internal/keybus"
	"github.com/physicsrob/didah-sub001/internal/morse"
)

type fixture struct {
	clk *clock.Fake
	bus *keybus.Bus
	jnl *journal.Journal
	m   *Machine
}

// newFixture builds a machine at 20 WPM (60ms dit) on the medium tier
// (1000ms window) over a fake clock and silent audio.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Unix(0, 0))
	bus := keybus.New()
	jnl := journal.New()
	m, err := New(clk, bus, audio.NewSilent(clk), nil, jnl, Config{WPM: 20, Tier: morse.TierMedium})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &fixture{clk: clk, bus: bus, jnl: jnl, m: m}
}

type runOutcome struct {
	res Result
	err error
}

func (f *fixture) run(ctx context.Context, char string) chan runOutcome {
	done := make(chan runOutcome, 1)
	go func() {
		res, err := f.m.Run(ctx, char)
		done <- runOutcome{res, err}
	}()
	return done
}

func waitPendingSleeps(t *testing.T, clk *clock.Fake, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for clk.PendingSleeps() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending sleeps, have %d", n, clk.PendingSleeps())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunCorrectKeystroke(t *testing.T) {
	f := newFixture(t)
	done := f.run(context.Background(), "K")

	// Audio: K is -.- which is 9 dits = 540ms at 20 WPM.
	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(540 * time.Millisecond)

	// The recognition window timer is now pending; the race has started.
	waitPendingSleeps(t, f.clk, 1)
	raceStart := f.clk.Now()
	f.bus.Push(keybus.Event{At: raceStart.Add(50 * time.Millisecond), Key: "k"})

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeCorrect {
		t.Fatalf("outcome = %v, want correct", got.res.Outcome)
	}
	if got.res.LatencyMs != 50 {
		t.Fatalf("latency = %dms, want 50", got.res.LatencyMs)
	}

	entries := f.jnl.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(entries))
	}
	if entries[0].Kind != journal.KindEmission || entries[0].Char != "K" {
		t.Fatalf("first entry = %+v, want emission of K", entries[0])
	}
	if entries[1].Kind != journal.KindCorrect || entries[1].LatencyMs != 50 {
		t.Fatalf("second entry = %+v, want correct with latency 50", entries[1])
	}
}

func TestRunIncorrectKeystroke(t *testing.T) {
	f := newFixture(t)
	done := f.run(context.Background(), "K")

	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(540 * time.Millisecond)
	waitPendingSleeps(t, f.clk, 1)
	f.bus.Push(keybus.Event{At: f.clk.Now().Add(30 * time.Millisecond), Key: "M"})

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeIncorrect || got.res.Got != "M" {
		t.Fatalf("result = %+v, want incorrect with got M", got.res)
	}

	entries := f.jnl.Snapshot()
	if len(entries) != 2 || entries[1].Kind != journal.KindIncorrect {
		t.Fatalf("journal = %+v, want emission then incorrect", entries)
	}
	if entries[1].Expected != "K" || entries[1].Got != "M" {
		t.Fatalf("incorrect entry = %+v", entries[1])
	}
}

func TestRunTimeout(t *testing.T) {
	f := newFixture(t)
	done := f.run(context.Background(), "E")

	// E is a single dit: 60ms of audio.
	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(60 * time.Millisecond)

	// Medium tier window is 1000ms.
	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(1000 * time.Millisecond)

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeTimeout {
		t.Fatalf("outcome = %v, want timeout", got.res.Outcome)
	}

	entries := f.jnl.Snapshot()
	if len(entries) != 2 || entries[1].Kind != journal.KindTimeout {
		t.Fatalf("journal = %+v, want emission then timeout", entries)
	}
	wantAt := time.Unix(0, 0).Add(1060 * time.Millisecond)
	if !entries[1].At.Equal(wantAt) {
		t.Fatalf("timeout at %v, want %v", entries[1].At, wantAt)
	}
}

func TestRunIgnoresNonMorseKeys(t *testing.T) {
	f := newFixture(t)
	done := f.run(context.Background(), "K")

	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(540 * time.Millisecond)
	waitPendingSleeps(t, f.clk, 1)

	// Keys with no Morse encoding settle neither arm.
	f.bus.Push(keybus.Event{At: f.clk.Now(), Key: "@"})
	f.bus.Push(keybus.Event{At: f.clk.Now().Add(20 * time.Millisecond), Key: "K"})

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeCorrect {
		t.Fatalf("outcome = %v, want correct", got.res.Outcome)
	}
	if f.bus.Pending() != 1 {
		t.Fatalf("Pending() = %d, want the ignored key still queued", f.bus.Pending())
	}
}

func TestRunWordGap(t *testing.T) {
	f := newFixture(t)
	done := f.run(context.Background(), " ")

	// A space is a fixed 4-dit silence slot: 240ms at 20 WPM. No race,
	// no input expected.
	waitPendingSleeps(t, f.clk, 1)
	f.clk.Advance(240 * time.Millisecond)

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeCorrect || got.res.LatencyMs != 0 {
		t.Fatalf("result = %+v, want auto-correct with latency 0", got.res)
	}

	entries := f.jnl.Snapshot()
	if len(entries) != 2 || entries[1].Kind != journal.KindCorrect || entries[1].Char != " " {
		t.Fatalf("journal = %+v, want emission then correct space", entries)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := f.run(ctx, "K")

	waitPendingSleeps(t, f.clk, 1)
	cancel()

	got := <-done
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", got.err)
	}
	// No terminal entry: the emission never settled.
	entries := f.jnl.Snapshot()
	if len(entries) != 1 || entries[0].Kind != journal.KindEmission {
		t.Fatalf("journal = %+v, want only the emission entry", entries)
	}
}

type failingPlayer struct {
	mu    sync.Mutex
	plays int
}

func (p *failingPlayer) PlayChar(context.Context, string, float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return fmt.Errorf("device gone")
}

func (p *failingPlayer) StopAudio(context.Context) error { return nil }

func TestRunAudioFailureIsNonFatal(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	bus := keybus.New()
	jnl := journal.New()
	player := &failingPlayer{}
	m, err := New(clk, bus, player, nil, jnl, Config{WPM: 20, Tier: morse.TierMedium})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var warnings []string
	var warnMu sync.Mutex
	m.warnf = func(format string, args ...any) {
		warnMu.Lock()
		defer warnMu.Unlock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	done := make(chan runOutcome, 1)
	go func() {
		res, err := m.Run(context.Background(), "K")
		done <- runOutcome{res, err}
	}()

	// The window must still open: only the window timer is pending.
	waitPendingSleeps(t, clk, 1)
	clk.Advance(1000 * time.Millisecond)

	got := <-done
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.res.Outcome != OutcomeTimeout {
		t.Fatalf("outcome = %v, want timeout", got.res.Outcome)
	}
	warnMu.Lock()
	defer warnMu.Unlock()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one playback warning", warnings)
	}
}

type recordingFeedback struct {
	mu    sync.Mutex
	cues  []Outcome
	chars []string
}

func (f *recordingFeedback) Trigger(outcome Outcome, char string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, outcome)
	f.chars = append(f.chars, char)
}

func TestRunTriggersFeedback(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	bus := keybus.New()
	jnl := journal.New()
	fb := &recordingFeedback{}
	m, err := New(clk, bus, audio.NewSilent(clk), fb, jnl, Config{WPM: 20, Tier: morse.TierMedium})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan runOutcome, 1)
	go func() {
		res, err := m.Run(context.Background(), "E")
		done <- runOutcome{res, err}
	}()
	waitPendingSleeps(t, clk, 1)
	clk.Advance(60 * time.Millisecond)
	waitPendingSleeps(t, clk, 1)
	bus.Push(keybus.Event{At: clk.Now(), Key: "E"})
	<-done

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.cues) != 1 || fb.cues[0] != OutcomeCorrect || fb.chars[0] != "E" {
		t.Fatalf("feedback = %v %v, want one correct cue for E", fb.cues, fb.chars)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	bus := keybus.New()
	jnl := journal.New()
	if _, err := New(clk, bus, audio.NewSilent(clk), nil, jnl, Config{WPM: 0, Tier: morse.TierMedium}); !errors.Is(err, morse.ErrInvalidWPM) {
		t.Fatalf("New error = %v, want ErrInvalidWPM", err)
	}
	if _, err := New(clk, bus, audio.NewSilent(clk), nil, jnl, Config{WPM: 20, Tier: "warp"}); !errors.Is(err, morse.ErrUnknownTier) {
		t.Fatalf("New error = %v, want ErrUnknownTier", err)
	}
}
