package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable renders a header row plus data rows as aligned lines.
// Columns listed in rightAlignCols are padded on the left.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlignCols))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := widths[i] - runewidth.StringWidth(cell)
		if pad < 0 {
			pad = 0
		}
		if rightAlignCols[i] {
			cells[i] = strings.Repeat(" ", pad) + cell
		} else {
			cells[i] = cell + strings.Repeat(" ", pad)
		}
	}
	return strings.Join(cells, " ")
}
