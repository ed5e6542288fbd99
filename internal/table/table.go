// Package table renders simple ASCII tables with per-column alignment.
// Cell widths are computed on the visible text, so ANSI color sequences in
// cells do not break alignment.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment positions cell text within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Table accumulates rows and renders them with a boxed header.
type Table struct {
	w           io.Writer
	header      []string
	headerAlign []Alignment
	colAlign    []Alignment
	rows        [][]string
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets per-column alignment for body rows.
func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.colAlign = align
	return t
}

// WithHeaderAlignment sets per-column alignment for the header row.
func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

// Append adds one body row.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// WithRows replaces all body rows.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func visibleLen(s string) int {
	return len(ansiPattern.ReplaceAllString(s, ""))
}

func (t *Table) columnCount() int {
	n := len(t.header)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (t *Table) widths() []int {
	widths := make([]int, t.columnCount())
	for i, h := range t.header {
		if w := visibleLen(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := visibleLen(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func pad(cell string, width int, align Alignment) string {
	gap := width - visibleLen(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func (t *Table) alignmentFor(aligns []Alignment, col int) Alignment {
	if col < len(aligns) {
		return aligns[col]
	}
	return AlignLeft
}

// Render writes the table.
func (t *Table) Render() {
	widths := t.widths()
	sep := t.separator(widths)
	fmt.Fprintln(t.w, sep)
	if len(t.header) > 0 {
		t.renderRow(t.header, widths, t.headerAlign)
		fmt.Fprintln(t.w, sep)
	}
	for _, row := range t.rows {
		t.renderRow(row, widths, t.colAlign)
	}
	fmt.Fprintln(t.w, sep)
}

func (t *Table) separator(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	return sb.String()
}

func (t *Table) renderRow(row []string, widths []int, aligns []Alignment) {
	var sb strings.Builder
	sb.WriteString("|")
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteString(" ")
		sb.WriteString(pad(cell, w, t.alignmentFor(aligns, i)))
		sb.WriteString(" |")
	}
	fmt.Fprintln(t.w, sb.String())
}
