// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"strings"

	"github.com/physicsrob/didah-sub001/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes effective copy WPM, characters per minute, and
// accuracy for a session. Accuracy counts misses as errors.
func SessionMetrics(correct, incorrect, missed int, durationMs int64) (wpm, cpm, accuracy float64) {
	total := correct + incorrect + missed
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if durationMs <= 0 {
		return 0, 0, accuracy
	}
	minutes := float64(durationMs) / 60000.0
	wpm = (float64(correct) / 5.0) / minutes
	cpm = float64(correct) / minutes
	return wpm, cpm, accuracy
}

// CharAccuracy returns the fraction of correct copies for an aggregate,
// 1.0 when the character was never transmitted.
func CharAccuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect + agg.Missed
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

// AvgLatencyMs returns the mean correct-copy latency for an aggregate.
func AvgLatencyMs(agg model.CharAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
