package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

// reader shows one item full screen and remembers how far through it the
// user got.
type reader struct {
	item     content.Item
	viewport viewport.Model
	ready    bool
	restore  int
}

func newReader(it content.Item, restore, width, height int) reader {
	return reader{
		item:     it,
		viewport: viewport.New(width, height),
		restore:  restore,
	}
}

// setContent loads rendered text and scrolls to the saved position.
func (r *reader) setContent(text string) {
	r.viewport.SetContent(text)
	r.viewport.SetYOffset(restoreOffset(r.restore, r.viewport.TotalLineCount(), r.viewport.Height))
	r.ready = true
}

// percent reports how far the user has scrolled, 0 to 100.
func (r *reader) percent() int {
	if !r.ready {
		return r.restore
	}
	return int(math.Round(r.viewport.ScrollPercent() * 100))
}

// restoreOffset maps a saved percentage back to a top line.
func restoreOffset(percent, lines, height int) int {
	scrollable := lines - height
	if scrollable <= 0 || percent <= 0 {
		return 0
	}
	return int(math.Round(float64(scrollable) * float64(percent) / 100))
}

func readerSource(it content.Item) string {
	if strings.TrimSpace(it.Body) != "" {
		return it.Body
	}
	var b strings.Builder
	b.WriteString("# " + it.Title + "\n\n")
	for _, p := range strings.Split(it.Content, "</p>") {
		if p = content.StripHTML(p); p != "" {
			b.WriteString(p + "\n\n")
		}
	}
	return b.String()
}

func renderMarkdown(source string, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(source)
}

func renderReaderCmd(it content.Item, width int, style string) tea.Cmd {
	return func() tea.Msg {
		text, err := renderMarkdown(readerSource(it), width, style)
		return readerRenderedMsg{id: it.ID, text: text, err: err}
	}
}
