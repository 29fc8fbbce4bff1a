package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	pa "github.com/gordonklaus/portaudio"

	"github.com/physicsrob/didah-sub001/internal/morse"
)

const (
	sampleRate = 44100.0
	frameCount = 512
	// rampMs shapes tone edges with a raised cosine to avoid key clicks.
	rampMs = 5.0
)

// Tone keys sine-wave Morse audio on the default output device.
type Tone struct {
	freq   float64
	volume float64

	mu      sync.Mutex // serializes stream writes
	stream  *pa.Stream
	buf     []float32
	stopped atomic.Bool
}

// NewTone initializes portaudio and opens a mono output stream. The
// caller owns the returned Tone and must Close it.
func NewTone(freqHz, volume float64) (*Tone, error) {
	if freqHz <= 0 {
		freqHz = DefaultFreqHz
	}
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	buf := make([]float32, frameCount)
	stream, err := pa.OpenDefaultStream(0, 1, sampleRate, frameCount, &buf)
	if err != nil {
		if terr := pa.Terminate(); terr != nil {
			// Best-effort teardown after a failed open.
			_ = terr
		}
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			_ = cerr
		}
		if terr := pa.Terminate(); terr != nil {
			_ = terr
		}
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}
	return &Tone{freq: freqHz, volume: volume, stream: stream, buf: buf}, nil
}

// Close stops the stream and terminates portaudio.
func (t *Tone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop output stream: %w", err)
	}
	if err := t.stream.Close(); err != nil {
		return fmt.Errorf("failed to close output stream: %w", err)
	}
	if err := pa.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate portaudio: %w", err)
	}
	return nil
}

// PlayChar keys the character's dit/dah pattern at the given speed and
// returns when the last element has been written to the device. A space
// plays its silence slot. StopAudio or ctx cancellation cuts playback
// short between buffers.
func (t *Tone) PlayChar(ctx context.Context, char string, wpm float64) error {
	runes := []rune(char)
	if len(runes) != 1 {
		return nil
	}
	ditMs, err := morse.DitMs(wpm)
	if err != nil {
		return err
	}
	t.stopped.Store(false)

	if runes[0] == ' ' {
		return t.writeSegment(ctx, morse.WordGapDits*ditMs, 0)
	}
	pattern, ok := morse.Pattern(runes[0])
	if !ok {
		return nil
	}
	for i, symbol := range pattern {
		if i > 0 {
			if err := t.writeSegment(ctx, morse.IntraSymbolDits*ditMs, 0); err != nil {
				return err
			}
		}
		durMs := ditMs
		if symbol == '-' {
			durMs = morse.DitsPerDah * ditMs
		}
		if err := t.writeSegment(ctx, durMs, t.volume); err != nil {
			return err
		}
	}
	return nil
}

// StopAudio silences any in-flight tone. It is a no-op when nothing is
// playing.
func (t *Tone) StopAudio(context.Context) error {
	t.stopped.Store(true)
	return nil
}

// writeSegment streams durMs of sine tone (or silence when amplitude is
// 0) in frameCount chunks, honoring cancellation between chunks.
func (t *Tone) writeSegment(ctx context.Context, durMs, amplitude float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := int(durMs * sampleRate / 1000)
	ramp := int(rampMs * sampleRate / 1000)
	if ramp*2 > total {
		ramp = total / 2
	}
	written := 0
	for written < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.stopped.Load() {
			return nil
		}
		n := len(t.buf)
		if total-written < n {
			n = total - written
		}
		for i := 0; i < n; i++ {
			sample := written + i
			v := amplitude * math.Sin(2*math.Pi*t.freq*float64(sample)/sampleRate)
			v *= envelope(sample, total, ramp)
			t.buf[i] = float32(v)
		}
		for i := n; i < len(t.buf); i++ {
			t.buf[i] = 0
		}
		if err := t.stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		written += n
	}
	return nil
}

// envelope applies raised-cosine attack and release ramps.
func envelope(sample, total, ramp int) float64 {
	if ramp <= 0 {
		return 1
	}
	if sample < ramp {
		return 0.5 * (1 - math.Cos(math.Pi*float64(sample)/float64(ramp)))
	}
	if sample >= total-ramp {
		remaining := total - sample
		return 0.5 * (1 - math.Cos(math.Pi*float64(remaining)/float64(ramp)))
	}
	return 1
}
