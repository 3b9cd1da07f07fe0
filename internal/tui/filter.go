package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

type filterBar struct {
	categories   []content.Category
	active       map[content.Category]bool
	filterMode   bool
	filterCursor int
}

func newFilterBar(categories []content.Category) filterBar {
	return filterBar{
		categories: categories,
		active:     make(map[content.Category]bool),
	}
}

func (f *filterBar) toggle(c content.Category) {
	if f.active[c] {
		delete(f.active, c)
	} else {
		f.active[c] = true
	}
}

func (f *filterBar) toggleCurrent() {
	if f.filterCursor < len(f.categories) {
		f.toggle(f.categories[f.filterCursor])
	}
}

func (f *filterBar) reset() {
	f.active = make(map[content.Category]bool)
}

func (f *filterBar) activeCategories() []content.Category {
	if len(f.active) == 0 {
		return nil // nil = every category
	}
	var out []content.Category
	for _, c := range f.categories {
		if f.active[c] {
			out = append(out, c)
		}
	}
	return out
}

func (f *filterBar) activeLabel() string {
	active := f.activeCategories()
	if active == nil {
		return "All"
	}
	labels := make([]string, len(active))
	for i, c := range active {
		labels[i] = c.Label()
	}
	return strings.Join(labels, ", ")
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	if len(f.active) == 0 {
		parts = append(parts, tabActiveStyle.Render("All"))
	} else {
		parts = append(parts, tabInactiveStyle.Render("All"))
	}

	for i, c := range f.categories {
		style := tabInactiveStyle
		if f.active[c] {
			style = tabActiveStyle
		}
		label := c.Label()
		if f.filterMode && i == f.filterCursor {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
