package journal

import (
	"testing"
	"time"
)

func TestJournalAppendOrder(t *testing.T) {
	j := New()
	start := time.Unix(0, 0)
	j.Emission(start, "K")
	j.Correct(start.Add(50*time.Millisecond), "K", 50)
	j.Emission(start.Add(time.Second), "M")
	j.Incorrect(start.Add(1200*time.Millisecond), "M", "N")
	j.Emission(start.Add(2*time.Second), "E")
	j.Timeout(start.Add(3*time.Second), "E")

	if j.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", j.Len())
	}
	entries := j.Snapshot()
	wantKinds := []Kind{KindEmission, KindCorrect, KindEmission, KindIncorrect, KindEmission, KindTimeout}
	for i, want := range wantKinds {
		if entries[i].Kind != want {
			t.Fatalf("entry %d kind = %v, want %v", i, entries[i].Kind, want)
		}
	}
	if entries[1].LatencyMs != 50 {
		t.Fatalf("correct entry latency = %d, want 50", entries[1].LatencyMs)
	}
	if entries[3].Expected != "M" || entries[3].Got != "N" {
		t.Fatalf("incorrect entry = %+v", entries[3])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	j := New()
	j.Emission(time.Unix(0, 0), "A")
	snap := j.Snapshot()
	snap[0].Char = "Z"
	if j.Snapshot()[0].Char != "A" {
		t.Fatalf("mutating a snapshot changed the journal")
	}
}
