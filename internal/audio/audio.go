// Package audio synthesizes Morse tones. NewTone opens the default
// output device via portaudio; Silent keeps session cadence without a
// working device.
package audio

import (
	"context"
	"time"

	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/morse"
)

// Defaults for the tone keyer.
const (
	DefaultFreqHz = 600.0
	DefaultVolume = 0.8
)

// Silent is a no-device player. PlayChar sleeps for the character's
// audio duration on the given clock so the session keeps its cadence.
type Silent struct {
	clock clock.Clock
}

// NewSilent returns a Silent player driven by c.
func NewSilent(c clock.Clock) *Silent {
	return &Silent{clock: c}
}

// PlayChar waits out the character's audio duration.
func (s *Silent) PlayChar(ctx context.Context, char string, wpm float64) error {
	runes := []rune(char)
	if len(runes) != 1 {
		return nil
	}
	durationMs, err := morse.CharDurationMs(runes[0], wpm, 0)
	if err != nil {
		return err
	}
	return s.clock.Sleep(ctx, time.Duration(durationMs*float64(time.Millisecond)))
}

// StopAudio is a no-op.
func (s *Silent) StopAudio(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Silent) Close() error {
	return nil
}
