package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions  []model.SessionAggregate
	CharAggs  []model.CharAggregate
	WeakChars map[rune]struct{}
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	charAggs, err := st.ListCharAggregatesForSessions(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions:  sessions,
		CharAggs:  charAggs,
		WeakChars: SelectWeakChars(charAggs, 8),
	}, nil
}

// RenderSummary prints a summary with a copy-speed sparkline.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalWPM, totalAcc, bestWPM float64
	wpms := make([]float64, len(sessions))
	for i, s := range sessions {
		wpm, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.Missed, s.DurationMs)
		wpms[i] = wpm
		totalWPM += wpm
		totalAcc += acc
		if wpm > bestWPM {
			bestWPM = wpm
		}
	}
	count := float64(len(sessions))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg copy WPM: %.2f\n", totalWPM/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best copy WPM: %.2f\n", bestWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", (totalAcc/count)*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n", Sparkline(wpms)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCharTable prints per-character aggregates, worst accuracy first.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ai := CharAccuracy(sorted[i])
		aj := CharAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Char < sorted[j].Char
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Character"); err != nil {
		return err
	}
	headers := []string{"Char", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect", "Missed"}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		label := agg.Char
		if label == " " {
			label = "<space>"
		}
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%.2f%%", CharAccuracy(agg)*100),
			fmt.Sprintf("%.1f", AvgLatencyMs(agg)),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", agg.Missed),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
