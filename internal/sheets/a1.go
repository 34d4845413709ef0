package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"spesevoce/internal/sheets/projection"
)

// A1 qualifies rng with a quoted sheet title: A1("октябрь 2026", "A1:L1")
// gives "'октябрь 2026'!A1:L1". An empty rng addresses the whole sheet.
func A1(sheet, rng string) string {
	q := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if rng == "" {
		return q
	}
	return q + "!" + rng
}

// SheetOfRange extracts the unquoted sheet title from an A1 range.
func SheetOfRange(a1 string) string {
	title := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		title = a1[:i]
	}
	if len(title) >= 2 && title[0] == '\'' && title[len(title)-1] == '\'' {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}
	return title
}

// GridRange is an inclusive 0-based cell range; -1 marks an open bound.
type GridRange struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// Contains reports whether (row, col) falls inside g.
func (g GridRange) Contains(row, col int) bool {
	return within(row, g.StartRow, g.EndRow) && within(col, g.StartCol, g.EndCol)
}

func within(v, lo, hi int) bool {
	return (lo < 0 || v >= lo) && (hi < 0 || v <= hi)
}

// ParseA1 splits "'Sheet'!A2:L" into the sheet title and its range. A bare
// title addresses the whole sheet.
func ParseA1(a1 string) (string, GridRange, error) {
	all := GridRange{-1, -1, -1, -1}
	i := strings.LastIndex(a1, "!")
	if i < 0 {
		return SheetOfRange(a1), all, nil
	}
	sheet := SheetOfRange(a1[:i])
	start, end, isRange := strings.Cut(a1[i+1:], ":")
	sc, sr, err := parseRef(start)
	if err != nil {
		return "", all, err
	}
	if !isRange {
		return sheet, GridRange{sr, sc, sr, sc}, nil
	}
	ec, er, err := parseRef(end)
	if err != nil {
		return "", all, err
	}
	return sheet, GridRange{sr, sc, er, ec}, nil
}

// parseRef reads "B3", "B" or "3"; missing parts are -1.
func parseRef(ref string) (col, row int, err error) {
	ref = strings.ReplaceAll(ref, "$", "")
	j := 0
	for j < len(ref) && (ref[j] < '0' || ref[j] > '9') {
		j++
	}
	col, row = -1, -1
	if j > 0 {
		if col = projection.LabelToColumn(ref[:j]); col < 0 {
			return 0, 0, fmt.Errorf("invalid column in %q", ref)
		}
	}
	if j < len(ref) {
		n, convErr := strconv.Atoi(ref[j:])
		if convErr != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid row in %q", ref)
		}
		row = n - 1
	}
	if col < 0 && row < 0 {
		return 0, 0, fmt.Errorf("empty cell reference %q", ref)
	}
	return col, row, nil
}
