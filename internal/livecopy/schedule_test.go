package livecopy

import (
	"errors"
	"testing"

	"github.com/physicsrob/didah-sub001/internal/morse"
)

func TestBuildScheduleEqualSpeeds(t *testing.T) {
	// At 20 WPM one dit is 60ms. E is 1 dit (60ms audio), T is 3 dits
	// (180ms audio); each non-space slot adds the 3-dit (180ms) gap.
	slots, err := BuildSchedule("ET", 20, 20)
	if err != nil {
		t.Fatalf("BuildSchedule failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].Char != "E" || slots[0].StartMs != 0 || slots[0].AudioMs != 60 || slots[0].SlotMs != 240 {
		t.Fatalf("slot 0 = %+v", slots[0])
	}
	if slots[1].Char != "T" || slots[1].StartMs != 240 || slots[1].AudioMs != 180 || slots[1].SlotMs != 360 {
		t.Fatalf("slot 1 = %+v", slots[1])
	}
}

func TestBuildScheduleWordGap(t *testing.T) {
	slots, err := BuildSchedule("E E", 20, 20)
	if err != nil {
		t.Fatalf("BuildSchedule failed: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	gap := slots[1]
	if !gap.WordGap {
		t.Fatalf("middle slot is not a word gap: %+v", gap)
	}
	// A space occupies its fixed 4-dit silence slot with no extra spacing.
	if gap.SlotMs != 240 || gap.AudioMs != 240 {
		t.Fatalf("word gap slot = %+v, want 240ms", gap)
	}
	if slots[2].StartMs != slots[1].StartMs+slots[1].SlotMs {
		t.Fatalf("slots are not back to back: %+v", slots)
	}
}

func TestBuildScheduleFarnsworth(t *testing.T) {
	// 20/10 Farnsworth stretches each character's spacing to 4140ms.
	slots, err := BuildSchedule("E", 20, 10)
	if err != nil {
		t.Fatalf("BuildSchedule failed: %v", err)
	}
	if slots[0].SlotMs != 60+4140 {
		t.Fatalf("slot = %+v, want 4200ms total", slots[0])
	}
}

func TestBuildScheduleInvalidSpeeds(t *testing.T) {
	if _, err := BuildSchedule("E", 0, 0); !errors.Is(err, morse.ErrInvalidWPM) {
		t.Fatalf("error = %v, want ErrInvalidWPM", err)
	}
	if _, err := BuildSchedule("E", 10, 20); !errors.Is(err, morse.ErrFarnsworthExceedsWPM) {
		t.Fatalf("error = %v, want ErrFarnsworthExceedsWPM", err)
	}
}

func TestTransmitEventsSkipsWordGaps(t *testing.T) {
	slots, err := BuildSchedule("AB C", 20, 20)
	if err != nil {
		t.Fatalf("BuildSchedule failed: %v", err)
	}
	events := TransmitEvents(slots)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (space skipped)", len(events))
	}
	for i, want := range []string{"A", "B", "C"} {
		if events[i].Char != want {
			t.Fatalf("event %d char = %q, want %q", i, events[i].Char, want)
		}
		if events[i].Type != EventTransmitted {
			t.Fatalf("event %d type = %v", i, events[i].Type)
		}
	}
	// Slot geometry survives the conversion: the evaluator's windows line
	// up with what was sent.
	if events[2].StartTime != slots[3].StartMs || events[2].Duration != slots[3].SlotMs {
		t.Fatalf("C event = %+v, slot = %+v", events[2], slots[3])
	}
}
