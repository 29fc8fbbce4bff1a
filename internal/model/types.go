// Package model defines shared data structures.
package model

import "time"

// Session modes.
const (
	ModePractice = "practice"
	ModeLiveCopy = "livecopy"
)

// Config defines trainer settings shared by both modes.
type Config struct {
	WPM           float64
	Tier          string
	FarnsworthWPM float64
	Chars         string
	Groups        int
	GroupSize     int
	OffsetMs      int64
	UpdateMs      int
	FreqHz        float64
	Volume        float64
	NoAudio       bool
	FocusWeak     bool
	WeakTop       int
	WeakFactor    float64
	WeakWindow    int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode  string
	Since *time.Time
	Last  int
	Chars string
}

// SessionStats captures a completed copy session.
type SessionStats struct {
	StartedAt     time.Time
	EndedAt       time.Time
	Mode          string
	WPM           float64
	Tier          string
	FarnsworthWPM float64
	Chars         string
	Correct       int
	Incorrect     int
	Missed        int
	DurationMs    int64
}

// CharStats stores per-character outcomes for a session. Latency sums
// cover correct copies only, measured from the recognition window start.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	Missed       int
	LatencySumMs int64
	LatencyCount int64
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	Missed       int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       string
	WPM        float64
	Correct    int
	Incorrect  int
	Missed     int
	DurationMs int64
}
