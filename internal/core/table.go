package core

import (
	"fmt"
	"strings"
)

// DefaultTitleRows is the number of banner rows pipeline exports carry above
// the header row.
const DefaultTitleRows = 1

// NoTitleRows asks for the header on the first row where a zero value would
// otherwise select DefaultTitleRows. FromGrid treats it as 0.
const NoTitleRows = -1

type (
	// Row maps a column label to its raw cell value.
	Row map[string]any

	// Table is an ordered header plus the data rows below it.
	Table struct {
		Columns []string
		Rows    []Row
		// TitleRows records how many leading rows were skipped to reach the
		// header; it only feeds error messages.
		TitleRows int
	}
)

// FromGrid turns a raw cell grid into a Table. The first titleRows rows are
// skipped (negative counts skip none), the next row is the header and every
// following row is data.
// Fully blank rows are dropped. Blank header cells become "Unnamed: <i>" and
// repeated labels get a ".<n>" suffix so no column is lost.
func FromGrid(grid [][]any, titleRows int) Table {
	if titleRows < 0 {
		titleRows = 0
	}
	t := Table{TitleRows: titleRows}
	if len(grid) <= titleRows {
		return t
	}

	t.Columns = headerLabels(grid[titleRows])
	for _, cells := range grid[titleRows+1:] {
		if blankRow(cells) {
			continue
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// StringGrid adapts a [][]string grid (CSV, spreadsheet exports) to FromGrid.
func StringGrid(rows [][]string) [][]any {
	grid := make([][]any, len(rows))
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, v := range r {
			if v == "" {
				cells[j] = nil
				continue
			}
			cells[j] = v
		}
		grid[i] = cells
	}
	return grid
}

func headerLabels(cells []any) []string {
	labels := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for i, c := range cells {
		l := label(c)
		if strings.TrimSpace(l) == "" {
			l = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[l]; dup {
			seen[l] = n + 1
			l = fmt.Sprintf("%s.%d", l, n+1)
		} else {
			seen[l] = 0
		}
		labels[i] = l
	}
	return labels
}

func blankRow(cells []any) bool {
	for _, c := range cells {
		if c == nil {
			continue
		}
		if s, ok := c.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
