// Package skeleton builds loading placeholders for tables that have not
// received data yet.
package skeleton

import "strings"

// Label is shown as the title of a table while its content loads.
const Label = "Table Content Loading"

const (
	bar      = "░"
	icon     = "◌ "
	maxCols  = 12
	fullSpan = 12
)

// Options shapes a table placeholder.
type Options struct {
	// Columns is clamped to 1..12; 0 means 1.
	Columns int
	// FirstColWidth is the first column's share of the width in percent.
	// 0 splits the width evenly.
	FirstColWidth int
	// OneLine drops the two sub-text lines under each column title.
	OneLine bool
	// HasEntityIcon prefixes each column with an icon placeholder.
	HasEntityIcon bool
	// Compact drops the trailing spacer row.
	Compact bool
}

func (o Options) columns() int {
	switch {
	case o.Columns < 1:
		return 1
	case o.Columns > maxCols:
		return maxCols
	}
	return o.Columns
}

func (o Options) firstColWidth() int {
	switch {
	case o.FirstColWidth < 0:
		return 0
	case o.FirstColWidth > 100:
		return 100
	}
	return o.FirstColWidth
}

// ColumnWidths splits total cells between the columns. The first column
// takes FirstColWidth percent when set and the rest share the remainder.
func ColumnWidths(opts Options, total int) []int {
	cols := opts.columns()
	first := opts.firstColWidth()
	widths := make([]int, cols)

	for i := range widths {
		switch {
		case first == 0:
			widths[i] = total / cols
		case i == 0:
			widths[i] = total * first / 100
		default:
			widths[i] = total * (100 - first) / (100 * (cols - 1))
		}
	}
	return widths
}

// Rows returns placeholder rows, one cell per column, sized to fit total
// cells.
func Rows(opts Options, total int) [][]string {
	widths := ColumnWidths(opts, total)

	title := make([]string, len(widths))
	for i, w := range widths {
		w-- // gutter
		if opts.HasEntityIcon {
			title[i] = icon + Basic(w-len([]rune(icon)))
			continue
		}
		title[i] = Basic(w)
	}
	rows := [][]string{title}

	if !opts.OneLine {
		// Sub-text lines span 9/12 and 6/12 of their column.
		for _, span := range []int{9, 6} {
			sub := make([]string, len(widths))
			for i, w := range widths {
				sub[i] = Basic((w - 1) * span / fullSpan)
			}
			rows = append(rows, sub)
		}
	}

	if !opts.Compact {
		rows = append(rows, make([]string, len(widths)))
	}
	return rows
}

// Basic returns a single placeholder bar of width cells, at least one.
func Basic(width int) string {
	if width < 1 {
		width = 1
	}
	return strings.Repeat(bar, width)
}
