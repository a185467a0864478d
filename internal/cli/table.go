package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/dataset"
)

// Align is the horizontal alignment of a table column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table formats rows into aligned columns. Widths are measured in runes so
// non-ASCII sample text lines up.
type Table struct {
	headers []string
	rows    [][]string
	align   map[int]Align
	padding int
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		align:   make(map[int]Align),
		padding: 2, // 2 spaces between columns
	}
}

// SetAlign sets the alignment of column col.
func (t *Table) SetAlign(col int, a Align) {
	t.align[col] = a
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	r := make([]string, len(t.headers))
	copy(r, row)
	t.rows = append(t.rows, r)
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	var b strings.Builder
	sep := strings.Repeat(" ", t.padding)
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = t.pad(i, c, widths[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		b.WriteString("\n")
	}

	writeRow(t.headers)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(rule)
	for _, row := range t.rows {
		writeRow(row)
	}
	return b.String()
}

func (t *Table) pad(col int, s string, width int) string {
	if t.align[col] == AlignRight {
		return padLeft(s, width)
	}
	return padRight(s, width)
}

// padRight pads s with spaces on the right to width runes.
// If s is already that wide it is returned unchanged.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// padLeft pads s with spaces on the left to width runes.
func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

// splitTable builds the per-part summary table for a split written to dir.
func splitTable(dir string, s dataset.Split, ratios config.Split) *Table {
	table := NewTable([]string{"Split", "Samples", "Share", "Target", "File"})
	table.SetAlign(1, AlignRight)
	table.SetAlign(2, AlignRight)
	table.SetAlign(3, AlignRight)

	targets := map[string]float64{
		"train": ratios.Train,
		"val":   ratios.Val,
		"test":  ratios.Test(),
	}

	total := s.Len()
	for _, p := range s.Parts() {
		table.AddRow([]string{
			p.Name,
			fmt.Sprintf("%d", len(p.Samples)),
			share(len(p.Samples), total),
			percent(targets[p.Name]),
			filepath.Join(dir, p.File),
		})
	}
	table.AddRow([]string{"total", fmt.Sprintf("%d", total), share(total, total), "", ""})
	return table
}

// printSummary writes the split table, followed by extra note lines.
func printSummary(w io.Writer, dir string, s dataset.Split, ratios config.Split, notes ...string) {
	fmt.Fprint(w, splitTable(dir, s, ratios).Render())
	for _, n := range notes {
		fmt.Fprintln(w, n)
	}
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return percent(float64(n) / float64(total))
}

func percent(r float64) string {
	return fmt.Sprintf("%.1f%%", 100*r)
}
