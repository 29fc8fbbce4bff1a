package livecopy

import (
	"math"

	"github.com/physicsrob/didah-sub001/internal/morse"
)

// Slot is one scheduled transmission: when a character's audio starts
// and how long its slot lasts, spacing included.
type Slot struct {
	Char    string
	StartMs int64
	AudioMs int64
	SlotMs  int64
	WordGap bool
}

// BuildSchedule lays out the characters of text back to back, starting
// at 0 ms. Each non-space slot is the character's audio duration plus
// the Farnsworth-adjusted inter-character spacing; spaces occupy their
// fixed silence slot. Supplying the slot length here is what keeps the
// evaluator's window boundaries consistent with what was actually sent.
func BuildSchedule(text string, characterWpm, effectiveWpm float64) ([]Slot, error) {
	spacingMs, err := morse.FarnsworthSpacingMs(characterWpm, effectiveWpm)
	if err != nil {
		return nil, err
	}
	var slots []Slot
	start := int64(0)
	for _, char := range text {
		audioMs, err := morse.CharDurationMs(char, characterWpm, 0)
		if err != nil {
			return nil, err
		}
		slotMs := audioMs
		if char != ' ' {
			slotMs += spacingMs
		}
		slot := Slot{
			Char:    string(char),
			StartMs: start,
			AudioMs: int64(math.Round(audioMs)),
			SlotMs:  int64(math.Round(slotMs)),
			WordGap: char == ' ',
		}
		slots = append(slots, slot)
		start += slot.SlotMs
	}
	return slots, nil
}

// TransmitEvents converts a schedule into the evaluator's transmit
// events. Word-gap slots are skipped: a space is silence, not a
// character the learner is asked to copy.
func TransmitEvents(slots []Slot) []Event {
	var events []Event
	for _, slot := range slots {
		if slot.WordGap {
			continue
		}
		events = append(events, Transmitted(slot.Char, slot.StartMs, slot.SlotMs))
	}
	return events
}
