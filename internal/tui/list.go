package tui

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

const spineGlyph = "▌"

// formatDate renders an ISO date as "Jan 2, 2006". Unparseable dates are
// shown as they are.
func formatDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

func renderListItem(it content.Item, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	spine := spineStyle(it.Title).Render(spineGlyph)
	var title string
	if selected {
		title = spine + itemSelectedStyle.Render("> "+truncateStr(it.Title, width-4))
	} else {
		title = spine + itemTitleStyle.Render("  "+truncateStr(it.Title, width-4))
	}

	meta := "   " + itemCategoryStyle.Render(it.Category.Label()) + " " + itemMetaStyle.Render("· "+formatDate(it.Date))

	return title + "\n" + meta
}

// truncateStr cuts s to at most n terminal cells, ending in "..." when cut.
func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return runewidth.Truncate(s, n, "")
	}
	return runewidth.Truncate(s, n, "...")
}

func renderList(items []content.Item, cursor int, height int, width int) string {
	if len(items) == 0 {
		return lipglossCenter("No matching items", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(items[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - runewidth.StringWidth(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
