// Package sheets reads an artist's contract window from the production
// tracking spreadsheet.
package sheets

import (
	"fmt"
	"strings"
	"time"
)

// Layout of the tracking tab, 1-indexed as shown in the sheet UI.
const (
	NameRow  = 3
	StartRow = 10
	EndRow   = 11
)

var dateLayouts = []string{"02/01/2006", "2006-01-02", "01/02/2006"}

// FormatDate renders recognised dates as "Jan 2". Anything else is returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fmt.Sprintf("%s %d", t.Format("Jan"), t.Day())
		}
	}
	return s
}

// TimelineFromRows finds the artist's column in the name row and joins the
// start and end cells beneath it. Returns "" when the artist or both dates are missing.
func TimelineFromRows(rows [][]any, artist string) string {
	if len(rows) < max(NameRow, StartRow, EndRow) || artist == "" {
		return ""
	}

	needle := strings.ToLower(artist)
	col := -1
	for i, cell := range rows[NameRow-1] {
		if strings.Contains(strings.ToLower(fmt.Sprint(cell)), needle) {
			col = i
			break
		}
	}
	if col < 0 {
		return ""
	}

	start := FormatDate(cellAt(rows, StartRow, col))
	end := FormatDate(cellAt(rows, EndRow, col))
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

func cellAt(rows [][]any, row, col int) string {
	if row > len(rows) || col >= len(rows[row-1]) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(rows[row-1][col]))
}
