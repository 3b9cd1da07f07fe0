package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

func renderPreview(it *content.Item, progress, width, height, scroll int) string {
	if it == nil {
		return lipglossCenter("Select an item", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(it.Title)
	meta := previewMetaStyle.Render(fmt.Sprintf("%s · %s · %d words · %d min read",
		it.Category.Label(), formatDate(it.Date), it.WordCount, it.ReadingTime))

	excerpt := it.Excerpt
	if excerpt == "" {
		excerpt = "(No excerpt available)"
	}
	body := previewBodyStyle.Width(contentWidth).Render(wrapText(excerpt, contentWidth))

	parts := []string{title, meta}
	if len(it.Tags) > 0 {
		tags := make([]string, len(it.Tags))
		for i, t := range it.Tags {
			tags[i] = tagStyle.Render(t)
		}
		parts = append(parts, strings.Join(tags, " "))
	}
	parts = append(parts, "", body)

	hint := "enter to read"
	if progress > 0 {
		hint = fmt.Sprintf("%d%% read · enter to continue", progress)
	}
	if it.DownloadURL != "" {
		hint += " · d download"
	}
	parts = append(parts, previewHintStyle.Render(hint))

	text := lipgloss.JoinVertical(lipgloss.Left, parts...)

	lines := strings.Split(text, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

// wrapText breaks s into lines no wider than width terminal cells.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if runewidth.StringWidth(line)+1+runewidth.StringWidth(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
