package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(shown, total int, filterLabel, query string, width int, m mode) string {
	queryStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	left := fmt.Sprintf(" %d of %d items", shown, total)
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if query != "" {
		left += " · " + queryStyle.Render(truncateStr(query, 24))
	}

	var right string
	switch m {
	case modeSearch:
		right = " esc clear  ↑/↓ pick  enter search "
	case modeFilter:
		right = " space toggle  a all  esc done "
	case modeReader:
		right = " j/k scroll  o open  esc close "
	default:
		right = " / search  f filter  enter read  ? help  q quit "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
