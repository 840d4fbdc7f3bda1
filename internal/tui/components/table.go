// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	// Width is the rendered width. Resize overwrites it; zero hides the
	// column.
	Width int
	Align lipgloss.Position

	// MinWidth is the smallest width a weighted column is given.
	MinWidth int
	// Weight is the proportional share of remaining width.
	Weight float64
	// Fixed is a fixed width that overrides Weight when > 0.
	Fixed int
	// Priority determines drop order when the terminal is narrow; lower is
	// dropped first.
	Priority int
}

// CalculateColumnWidths distributes available width among columns
// proportionally. Low-priority columns are hidden (width 0) until the
// rest fit. separator is the width consumed per column gap.
func CalculateColumnWidths(cols []Column, availableWidth int, separator int) []int {
	widths := make([]int, len(cols))

	visible := make([]bool, len(cols))
	totalFixed := 0
	totalWeight := 0.0
	visibleCount := 0

	for i, col := range cols {
		visible[i] = true
		visibleCount++
		if col.Fixed > 0 {
			totalFixed += col.Fixed
		} else {
			totalWeight += col.Weight
		}
	}

	remaining := func() int {
		gaps := 0
		if visibleCount > 1 {
			gaps = (visibleCount - 1) * separator
		}
		return availableWidth - totalFixed - gaps - 2 // row padding
	}

	for remaining() < 0 && visibleCount > 1 {
		lowest := -1
		for i, col := range cols {
			if visible[i] && (lowest < 0 || col.Priority < cols[lowest].Priority) {
				lowest = i
			}
		}
		if lowest < 0 {
			break
		}
		visible[lowest] = false
		visibleCount--
		if cols[lowest].Fixed > 0 {
			totalFixed -= cols[lowest].Fixed
		} else {
			totalWeight -= cols[lowest].Weight
		}
	}

	left := max(remaining(), 0)

	for i, col := range cols {
		switch {
		case !visible[i]:
			widths[i] = 0
		case col.Fixed > 0:
			widths[i] = col.Fixed
		case totalWeight > 0:
			widths[i] = max(int(float64(left)*col.Weight/totalWeight), col.MinWidth)
		default:
			widths[i] = col.MinWidth
		}
	}

	return widths
}

// Table is a simple scrollable table component.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool
	emptyText   string

	// Styles
	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	rowAltStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:       columns,
		rows:          [][]string{},
		visibleRows:   10,
		emptyText:     "Sin registros",
		headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2C14E")),
		rowStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E8E2C8")),
		rowAltStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8FA9C8")),
		selectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("#F2C14E")).Foreground(lipgloss.Color("#10141A")),
		borderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6B7A")),
	}
}

// SetRows sets the table data and keeps the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = max(len(rows)-1, 0)
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	t.visibleRows = max(n, 1)
}

// SetEmptyText sets the message rendered when there are no rows.
func (t *Table) SetEmptyText(s string) {
	t.emptyText = s
}

// Resize recomputes column widths for the available width.
func (t *Table) Resize(width int) {
	for i, w := range CalculateColumnWidths(t.columns, width, 3) {
		t.columns[i].Width = w
	}
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(header, row, rowAlt, selected, border lipgloss.Style) {
	t.headerStyle = header
	t.rowStyle = row
	t.rowAltStyle = rowAlt
	t.selectedStyle = selected
	t.borderStyle = border
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = max(t.selected-t.visibleRows+1, 0)
	}
}

// Render renders the table.
func (t *Table) Render() string {
	var b strings.Builder

	totalWidth := 0
	for _, col := range t.columns {
		if col.Width > 0 {
			totalWidth += col.Width + 3
		}
	}

	b.WriteString(t.renderRow(t.getHeaders(), t.headerStyle))
	b.WriteString("\n")
	b.WriteString(t.borderStyle.Render(strings.Repeat("-", totalWidth)))
	b.WriteString("\n")

	if len(t.rows) == 0 {
		b.WriteString(t.borderStyle.Render(" " + t.emptyText))
		b.WriteString("\n")
		return b.String()
	}

	endIdx := min(t.offset+t.visibleRows, len(t.rows))
	for i := t.offset; i < endIdx; i++ {
		var style lipgloss.Style
		switch {
		case i == t.selected && t.focused:
			style = t.selectedStyle
		case (i-t.offset)%2 == 1:
			style = t.rowAltStyle
		default:
			style = t.rowStyle
		}

		b.WriteString(t.renderRow(t.rows[i], style))
		b.WriteString("\n")
	}

	if len(t.rows) > t.visibleRows {
		b.WriteString(t.borderStyle.Render(fmt.Sprintf(" %d-%d de %d", t.offset+1, endIdx, len(t.rows))))
		b.WriteString("\n")
	}

	return b.String()
}

func (t *Table) getHeaders() []string {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}
	return headers
}

func (t *Table) renderRow(cells []string, style lipgloss.Style) string {
	var parts []string

	for i, col := range t.columns {
		if col.Width <= 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		runes := []rune(cell)
		if len(runes) > col.Width {
			cell = string(runes[:col.Width-1]) + "…"
		}

		pad := col.Width - lipgloss.Width(cell)
		switch col.Align {
		case lipgloss.Right:
			cell = strings.Repeat(" ", pad) + cell
		case lipgloss.Center:
			leftPad := pad / 2
			cell = strings.Repeat(" ", leftPad) + cell + strings.Repeat(" ", pad-leftPad)
		default:
			cell += strings.Repeat(" ", pad)
		}

		parts = append(parts, style.Render(cell))
	}

	return " " + strings.Join(parts, " | ") + " "
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
