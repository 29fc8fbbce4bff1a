package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/physicsrob/didah-sub001/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "didah.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return st
}

func sessionAt(endedAt time.Time, mode string, correct, incorrect, missed int) model.SessionStats {
	return model.SessionStats{
		StartedAt:     endedAt.Add(-time.Minute),
		EndedAt:       endedAt,
		Mode:          mode,
		WPM:           20,
		Tier:          "medium",
		FarnsworthWPM: 20,
		Chars:         "KMU",
		Correct:       correct,
		Incorrect:     incorrect,
		Missed:        missed,
		DurationMs:    60000,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	id1, err := st.InsertSession(ctx, sessionAt(base, model.ModePractice, 40, 5, 5), nil)
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	id2, err := st.InsertSession(ctx, sessionAt(base.Add(time.Hour), model.ModeLiveCopy, 30, 10, 10), nil)
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("duplicate session ids: %d", id1)
	}

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	// Oldest first.
	if !sessions[0].EndedAt.Before(sessions[1].EndedAt) {
		t.Fatalf("sessions not ordered by ended_at: %+v", sessions)
	}
	if sessions[0].Correct != 40 || sessions[0].Missed != 5 {
		t.Fatalf("session 0 = %+v", sessions[0])
	}
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if _, err := st.InsertSession(ctx, sessionAt(base, model.ModePractice, 40, 0, 0), nil); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if _, err := st.InsertSession(ctx, sessionAt(base.Add(time.Hour), model.ModeLiveCopy, 30, 0, 0), nil); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	byMode, err := st.ListSessions(ctx, model.StatsConfig{Mode: model.ModeLiveCopy})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(byMode) != 1 || byMode[0].Mode != model.ModeLiveCopy {
		t.Fatalf("mode filter returned %+v", byMode)
	}

	since := base.Add(30 * time.Minute)
	bySince, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(bySince) != 1 || !bySince[0].EndedAt.After(since) {
		t.Fatalf("since filter returned %+v", bySince)
	}
}

func TestCharAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	id1, err := st.InsertSession(ctx, sessionAt(base, model.ModePractice, 10, 2, 1), []model.CharStats{
		{Char: "K", Correct: 5, Incorrect: 1, LatencySumMs: 500, LatencyCount: 5},
		{Char: "M", Correct: 5, Incorrect: 1, Missed: 1, LatencySumMs: 400, LatencyCount: 5},
	})
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	id2, err := st.InsertSession(ctx, sessionAt(base.Add(time.Hour), model.ModePractice, 4, 1, 0), []model.CharStats{
		{Char: "K", Correct: 4, Incorrect: 1, LatencySumMs: 300, LatencyCount: 4},
	})
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	aggs, err := st.ListCharAggregatesForSessions(ctx, []int64{id1, id2})
	if err != nil {
		t.Fatalf("ListCharAggregatesForSessions failed: %v", err)
	}
	byChar := map[string]model.CharAggregate{}
	for _, agg := range aggs {
		byChar[agg.Char] = agg
	}
	k := byChar["K"]
	if k.Correct != 9 || k.Incorrect != 2 || k.LatencySumMs != 800 || k.LatencyCount != 9 {
		t.Fatalf("K aggregate = %+v", k)
	}
	m := byChar["M"]
	if m.Missed != 1 {
		t.Fatalf("M aggregate = %+v", m)
	}

	empty, err := st.ListCharAggregatesForSessions(ctx, nil)
	if err != nil {
		t.Fatalf("ListCharAggregatesForSessions(nil) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no aggregates for no sessions, got %+v", empty)
	}
}

func TestGetWeakChars(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// An old session outside the window and a recent one inside it.
	if _, err := st.InsertSession(ctx, sessionAt(base, model.ModePractice, 1, 0, 0), []model.CharStats{
		{Char: "Z", Correct: 1},
	}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if _, err := st.InsertSession(ctx, sessionAt(base.Add(time.Hour), model.ModePractice, 2, 3, 0), []model.CharStats{
		{Char: "K", Correct: 2, Incorrect: 3, LatencySumMs: 200, LatencyCount: 2},
	}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	aggs, err := st.GetWeakChars(ctx, 1, model.ModePractice)
	if err != nil {
		t.Fatalf("GetWeakChars failed: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Char != "K" {
		t.Fatalf("window of 1 session returned %+v", aggs)
	}

	all, err := st.GetWeakChars(ctx, 10, "")
	if err != nil {
		t.Fatalf("GetWeakChars failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered window returned %+v", all)
	}

	none, err := st.GetWeakChars(ctx, 0, "")
	if err != nil {
		t.Fatalf("GetWeakChars(0) failed: %v", err)
	}
	if none != nil {
		t.Fatalf("zero window returned %+v", none)
	}
}
