package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LayoutBreakpoint defines terminal width thresholds for responsive layout.
type LayoutBreakpoint int

const (
	// BreakpointNarrow is for terminals under 60 columns (phones over SSH).
	BreakpointNarrow LayoutBreakpoint = 60
	// BreakpointMedium is for terminals between 60-100 columns.
	BreakpointMedium LayoutBreakpoint = 100
	// BreakpointWide is for terminals over 100 columns.
	BreakpointWide LayoutBreakpoint = 140
)

// GetBreakpoint returns the current layout breakpoint for the given width.
func GetBreakpoint(width int) LayoutBreakpoint {
	switch {
	case width < int(BreakpointNarrow):
		return BreakpointNarrow
	case width < int(BreakpointMedium):
		return BreakpointMedium
	default:
		return BreakpointWide
	}
}

// Panel renders a bordered panel with a title set into the top border.
func (t *Theme) Panel(title, content string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.SecondaryColor).
		Width(width - 2). // -2 for border chars
		Padding(0, 1)

	rendered := style.Render(content)
	if title == "" {
		return rendered
	}

	lines := strings.Split(rendered, "\n")
	topLine := []rune(lines[0])
	titleRendered := t.Accent.Bold(true).Render(" " + title + " ")
	titleWidth := lipgloss.Width(titleRendered)
	if titleWidth+4 < lipgloss.Width(lines[0]) && len(topLine) > 2+titleWidth {
		lines[0] = string(topLine[:2]) + titleRendered + string(topLine[2+titleWidth:])
	}
	return strings.Join(lines, "\n")
}

// ProgressBar renders a text-based progress bar.
func (t *Theme) ProgressBar(value, max float64, width int) string {
	if max <= 0 {
		max = 1
	}
	ratio := value / max
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	barWidth := width - 2 // for [ and ]
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(ratio * float64(barWidth))
	empty := barWidth - filled

	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
	if ratio >= 1 {
		return t.Success.Render(bar)
	}
	return t.Accent.Render(bar)
}

// Truncate shortens a string to fit within maxWidth, adding ellipsis if needed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	if maxWidth <= 3 {
		return string(runes[:min(maxWidth, len(runes))])
	}
	if len(runes) > maxWidth-1 {
		runes = runes[:maxWidth-1]
	}
	return string(runes) + "…"
}

// PadRight pads a string to the given width with spaces.
func PadRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// ContentWidth returns the usable content width, capped between min and max.
func ContentWidth(termWidth, minWidth, maxWidth int) int {
	w := termWidth
	if w < minWidth {
		w = minWidth
	}
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return w
}

// ContentHeight returns the usable content height after subtracting chrome.
// chromeLines is the total lines used by header, footer, alert bar, separators.
func ContentHeight(termHeight, chromeLines int) int {
	h := termHeight - chromeLines
	if h < 5 {
		h = 5
	}
	return h
}
