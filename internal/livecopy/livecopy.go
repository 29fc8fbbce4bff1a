// Package livecopy reconstructs the on-screen state of a copy session
// purely from timestamped transmit and typed events.
//
// Evaluate is stateless and replayable: the live view and the end-of-
// session reveal both call it, so they can never disagree. Callers must
// only keep currentTime non-decreasing across calls for the same log;
// under that contract a character's status never reverts from a terminal
// value.
package livecopy

import (
	"math"
	"strings"
)

// EventType discriminates log events.
type EventType string

// Log event types.
const (
	EventTransmitted EventType = "transmitted"
	EventTyped       EventType = "typed"
)

// Event is one entry of the live-copy log. All times are milliseconds on
// the session clock. For transmitted events, Duration is the entire slot
// the character occupies, including its trailing inter-character
// spacing; the slot, not a separately tracked next start time, defines
// the window boundary.
type Event struct {
	Type      EventType
	Char      string
	StartTime int64 // transmitted: slot start
	Duration  int64 // transmitted: slot length
	Time      int64 // typed: keystroke time
}

// Transmitted builds a transmit event.
func Transmitted(char string, startTime, duration int64) Event {
	return Event{Type: EventTransmitted, Char: char, StartTime: startTime, Duration: duration}
}

// Typed builds a keystroke event.
func Typed(char string, at int64) Event {
	return Event{Type: EventTyped, Char: char, Time: at}
}

// Status is a character's display state.
type Status string

// Display statuses. Pending is the only non-terminal status.
const (
	StatusPending Status = "pending"
	StatusCorrect Status = "correct"
	StatusWrong   Status = "wrong"
	StatusMissed  Status = "missed"
)

// CharDisplay is the derived state of one transmitted character. Typed
// carries what was entered: surfaced without a verdict while the window
// is open, and kept alongside a wrong verdict after it closes.
type CharDisplay struct {
	Char   string
	Status Status
	Typed  string
}

// Score aggregates the terminal statuses. Total counts non-pending
// characters; Accuracy is round(100 * correct / total), 0 when total is 0.
type Score struct {
	Correct  int
	Wrong    int
	Missed   int
	Total    int
	Accuracy int
}

// Config holds evaluation parameters. OffsetMs shifts every input window
// later than its audio slot, giving the learner reaction headroom.
type Config struct {
	OffsetMs int64
}

// Result is a full display snapshot.
type Result struct {
	Display []CharDisplay
	Score   Score
}

// Evaluate derives the display snapshot for the log as of currentTime.
// Characters whose window has not opened yet are omitted entirely. For
// each included character the first typed event inside its window wins;
// later keystrokes in the same window are ignored.
func Evaluate(events []Event, currentTime int64, cfg Config) Result {
	var display []CharDisplay
	for _, ev := range events {
		if ev.Type != EventTransmitted {
			continue
		}
		windowStart := ev.StartTime + cfg.OffsetMs
		if windowStart > currentTime {
			continue
		}
		windowEnd := ev.StartTime + ev.Duration + cfg.OffsetMs
		typed, hasTyped := firstTypedIn(events, windowStart, windowEnd)

		cd := CharDisplay{Char: ev.Char}
		switch {
		case currentTime < windowEnd:
			cd.Status = StatusPending
			if hasTyped {
				cd.Typed = typed
			}
		case hasTyped && strings.EqualFold(typed, ev.Char):
			cd.Status = StatusCorrect
		case hasTyped:
			cd.Status = StatusWrong
			cd.Typed = typed
		default:
			cd.Status = StatusMissed
		}
		display = append(display, cd)
	}
	return Result{Display: display, Score: scoreOf(display)}
}

// firstTypedIn returns the first typed event with windowStart <= time <
// windowEnd, in log order.
func firstTypedIn(events []Event, windowStart, windowEnd int64) (string, bool) {
	for _, ev := range events {
		if ev.Type != EventTyped {
			continue
		}
		if ev.Time >= windowStart && ev.Time < windowEnd {
			return ev.Char, true
		}
	}
	return "", false
}

func scoreOf(display []CharDisplay) Score {
	var s Score
	for _, cd := range display {
		switch cd.Status {
		case StatusCorrect:
			s.Correct++
		case StatusWrong:
			s.Wrong++
		case StatusMissed:
			s.Missed++
		}
	}
	s.Total = s.Correct + s.Wrong + s.Missed
	if s.Total > 0 {
		s.Accuracy = int(math.Round(100 * float64(s.Correct) / float64(s.Total)))
	}
	return s
}
