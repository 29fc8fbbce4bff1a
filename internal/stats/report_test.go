package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/store"
)

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: 1, EndedAt: time.Now(), Mode: model.ModePractice, Correct: 50, Incorrect: 5, Missed: 5, DurationMs: 60000},
		{SessionID: 2, EndedAt: time.Now(), Mode: model.ModePractice, Correct: 60, Incorrect: 0, Missed: 0, DurationMs: 60000},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg copy WPM:", "Best copy WPM: 12.00", "Avg Accuracy:", "Trend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCharTable(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "K", Correct: 8, Incorrect: 2, LatencySumMs: 800, LatencyCount: 8},
		{Char: "M", Correct: 2, Incorrect: 8, LatencySumMs: 400, LatencyCount: 2},
		{Char: " ", Correct: 5},
	}
	var buf bytes.Buffer
	if err := RenderCharTable(&buf, aggs); err != nil {
		t.Fatalf("RenderCharTable failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<space>") {
		t.Fatalf("space row not labeled:\n%s", out)
	}
	// Worst accuracy sorts first.
	if strings.Index(out, "\nM ") > strings.Index(out, "\nK ") {
		t.Fatalf("rows not sorted worst-first:\n%s", out)
	}
}

func TestBuildReportLastN(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "didah.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			t.Errorf("Close failed: %v", cerr)
		}
	}()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		session := model.SessionStats{
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			EndedAt:    base.Add(time.Duration(i)*time.Hour + time.Minute),
			Mode:       model.ModePractice,
			WPM:        20,
			Tier:       "medium",
			Chars:      "KMU",
			Correct:    10 + i,
			DurationMs: 60000,
		}
		chars := []model.CharStats{{Char: "K", Correct: 10 + i}}
		if _, err := st.InsertSession(ctx, session, chars); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("got %d sessions, want the last 2", len(report.Sessions))
	}
	// The most recent sessions survive the trim.
	if report.Sessions[0].Correct != 11 || report.Sessions[1].Correct != 12 {
		t.Fatalf("kept sessions = %+v", report.Sessions)
	}
	// Char aggregates cover only the kept sessions: 11 + 12 correct.
	if len(report.CharAggs) != 1 || report.CharAggs[0].Correct != 23 {
		t.Fatalf("char aggregates = %+v", report.CharAggs)
	}
}

func TestFormatTableAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "1"}, {"b", "100"}},
		map[int]bool{1: true},
	)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[1] != "alpha     1" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[2] != "b       100" {
		t.Fatalf("row 2 = %q", lines[2])
	}
}
