// Package journal keeps the append-only log of session events.
//
// The journal has a single writer (the emission machine) and any number
// of readers. Readers work on snapshots and never mutate; entries are
// never removed, so consumers can replay from the beginning at any time.
package journal

import (
	"sync"
	"time"
)

// Kind discriminates journal entries.
type Kind string

// Entry kinds. Each emission entry is followed by at most one terminal
// entry (correct, incorrect, or timeout) before the next emission.
const (
	KindEmission  Kind = "emission"
	KindCorrect   Kind = "correct"
	KindIncorrect Kind = "incorrect"
	KindTimeout   Kind = "timeout"
)

// Entry is one logged event. Fields beyond At/Kind/Char are populated
// per kind: LatencyMs for correct, Expected/Got for incorrect.
type Entry struct {
	At        time.Time
	Kind      Kind
	Char      string
	LatencyMs int64
	Expected  string
	Got       string
}

// Journal is an append-only event log.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Journal.
func New() *Journal {
	return &Journal{}
}

// Emission records that a character began playing.
func (j *Journal) Emission(at time.Time, char string) {
	j.append(Entry{At: at, Kind: KindEmission, Char: char})
}

// Correct records a matching keystroke and its latency from race start.
func (j *Journal) Correct(at time.Time, char string, latencyMs int64) {
	j.append(Entry{At: at, Kind: KindCorrect, Char: char, LatencyMs: latencyMs})
}

// Incorrect records a non-matching keystroke.
func (j *Journal) Incorrect(at time.Time, expected, got string) {
	j.append(Entry{At: at, Kind: KindIncorrect, Char: expected, Expected: expected, Got: got})
}

// Timeout records a recognition window that closed without input.
func (j *Journal) Timeout(at time.Time, char string) {
	j.append(Entry{At: at, Kind: KindTimeout, Char: char})
}

// Snapshot returns a copy of all entries in append order.
func (j *Journal) Snapshot() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}
