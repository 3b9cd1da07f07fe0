package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/browser"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/prefs"
	"github.com/matheuskafuri/bookshelf/internal/search"
)

const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultReaderStyle = "dark"
	maxPanelRows       = 5
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modeReader
	modeHelp
)

type App struct {
	searcher search.Searcher
	history  *prefs.History
	progress *prefs.Progress
	log      *zap.Logger

	siteURL     string
	readerStyle string
	debounce    time.Duration

	items  []content.Item
	total  int
	query  string
	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	filterBar   filterBar
	reader      reader

	// Search panel state. pick indexes into the visible choices, -1 for none.
	suggestions []content.Item
	recent      []string
	pick        int
	seq         int

	previewScroll int
	err           error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Searcher search.Searcher
	History  *prefs.History
	Progress *prefs.Progress
	Logger   *zap.Logger

	// SiteURL is where the edge serves the built site; "o" and "d" open
	// pages relative to it.
	SiteURL     string
	ReaderStyle string
	Debounce    time.Duration
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search the library..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	style := opts.ReaderStyle
	if style == "" {
		style = DefaultReaderStyle
	}

	a := &App{
		searcher:    opts.Searcher,
		history:     opts.History,
		progress:    opts.Progress,
		log:         log,
		siteURL:     opts.SiteURL,
		readerStyle: style,
		debounce:    debounce,
		searchInput: ti,
		filterBar:   newFilterBar(content.AllCategories()),
		pick:        -1,
	}
	a.total = len(a.searcher.Search(""))
	a.refresh()
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

// refresh re-ranks the catalog for the applied query and category filter.
func (a *App) refresh() {
	a.items = content.Filter(a.searcher.Search(a.query), a.filterBar.activeCategories()...)
	if a.cursor >= len(a.items) {
		a.cursor = max(0, len(a.items)-1)
	}
	a.previewScroll = 0
}

func (a *App) selected() *content.Item {
	if len(a.items) == 0 || a.cursor >= len(a.items) {
		return nil
	}
	return &a.items[a.cursor]
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) openItemPage(it content.Item) tea.Cmd {
	u, err := browser.ItemURL(a.siteURL, it.ID)
	if err != nil {
		a.err = err
		return nil
	}
	return openBrowserCmd(u)
}

func (a *App) openDownload(it content.Item) tea.Cmd {
	if it.DownloadURL == "" {
		return nil
	}
	u, err := browser.Resolve(a.siteURL, it.DownloadURL)
	if err != nil {
		a.err = err
		return nil
	}
	return openBrowserCmd(u)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.mode == modeReader {
			w, h := a.readerSize()
			a.reader.viewport.Width = w
			a.reader.viewport.Height = h
			a.reader.restore = a.reader.percent()
			return a, renderReaderCmd(a.reader.item, w, a.readerStyle)
		}
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case suggestTickMsg:
		if msg.seq != a.seq || a.mode != modeSearch {
			return a, nil
		}
		a.suggestions = a.searcher.Suggest(msg.query)
		a.pick = -1
		return a, nil

	case readerRenderedMsg:
		if a.mode != modeReader || msg.id != a.reader.item.ID {
			return a, nil
		}
		text := msg.text
		if msg.err != nil {
			a.log.Warn("render item", zap.String("id", msg.id), zap.Error(msg.err))
			a.err = msg.err
			text = wrapText(readerSource(a.reader.item), a.reader.viewport.Width)
		}
		a.reader.setContent(text)
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if a.mode == modeReader {
			a.closeReader()
		}
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeReader:
		return a.handleReaderKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.items)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "enter":
		if it := a.selected(); it != nil {
			return a, a.openReader(*it)
		}
		return a, nil
	case "o":
		if it := a.selected(); it != nil {
			return a, a.openItemPage(*it)
		}
		return a, nil
	case "d":
		if it := a.selected(); it != nil {
			return a, a.openDownload(*it)
		}
		return a, nil
	case "/":
		return a, a.startSearch()
	case "esc":
		if a.query != "" {
			a.query = ""
			a.searchInput.SetValue("")
			a.cursor = 0
			a.refresh()
		}
		return a, nil
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) startSearch() tea.Cmd {
	a.mode = modeSearch
	a.recent = a.history.Load()
	a.suggestions = nil
	a.pick = -1
	cmds := []tea.Cmd{a.searchInput.Focus(), textinput.Blink}
	if strings.TrimSpace(a.searchInput.Value()) != "" {
		cmds = append(cmds, a.scheduleSuggest())
	}
	return tea.Batch(cmds...)
}

// choiceCount is the number of rows the search panel offers: history
// while the input is blank, suggestions otherwise.
func (a *App) choiceCount() int {
	if strings.TrimSpace(a.searchInput.Value()) == "" {
		return min(len(a.recent), maxPanelRows)
	}
	return len(a.suggestions)
}

// scheduleSuggest starts a debounce tick for the current input. Each
// keystroke bumps seq so only the last tick in a burst is honored.
func (a *App) scheduleSuggest() tea.Cmd {
	a.seq++
	seq, q := a.seq, a.searchInput.Value()
	if strings.TrimSpace(q) == "" {
		a.suggestions = nil
		return nil
	}
	return tea.Tick(a.debounce, func(time.Time) tea.Msg {
		return suggestTickMsg{seq: seq, query: q}
	})
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.exitSearch()
		a.searchInput.SetValue("")
		a.query = ""
		a.cursor = 0
		a.refresh()
		return a, nil
	case "up", "ctrl+p":
		if a.pick >= 0 {
			a.pick--
		}
		return a, nil
	case "down", "ctrl+n":
		if a.pick < a.choiceCount()-1 {
			a.pick++
		}
		return a, nil
	case "ctrl+d":
		if strings.TrimSpace(a.searchInput.Value()) == "" {
			a.history.Clear()
			a.recent = nil
			a.pick = -1
		}
		return a, nil
	case "enter":
		return a, a.submitSearch()
	}

	prev := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	// Only re-query on actual value changes, not cursor moves etc.
	if a.searchInput.Value() != prev {
		a.pick = -1
		return a, tea.Batch(cmd, a.scheduleSuggest())
	}
	return a, cmd
}

// submitSearch applies the input (or the picked history entry) as the
// list query and records it. Picking a suggestion also opens it.
func (a *App) submitSearch() tea.Cmd {
	q := strings.TrimSpace(a.searchInput.Value())
	var open *content.Item
	if a.pick >= 0 {
		if q == "" && a.pick < len(a.recent) {
			q = a.recent[a.pick]
			a.searchInput.SetValue(q)
		} else if a.pick < len(a.suggestions) {
			it := a.suggestions[a.pick]
			open = &it
		}
	}

	a.recent = a.history.Add(q)
	a.query = q
	a.cursor = 0
	a.exitSearch()
	a.refresh()

	if open != nil {
		return a.openReader(*open)
	}
	return nil
}

func (a *App) exitSearch() {
	a.mode = modeNormal
	a.searchInput.Blur()
	a.suggestions = nil
	a.pick = -1
	a.seq++
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.filterBar.filterCursor > 0 {
			a.filterBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.filterBar.filterCursor < len(a.filterBar.categories)-1 {
			a.filterBar.filterCursor++
		}
		return a, nil
	case " ", "enter":
		a.filterBar.toggleCurrent()
		a.cursor = 0
		a.refresh()
		return a, nil
	case "a":
		a.filterBar.reset()
		a.cursor = 0
		a.refresh()
		return a, nil
	case "1", "2", "3":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.filterBar.categories) {
			a.filterBar.toggle(a.filterBar.categories[idx])
			a.cursor = 0
			a.refresh()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) readerSize() (int, int) {
	// header + status + frame borders
	return max(a.width-2, 20), max(a.height-4, 3)
}

func (a *App) openReader(it content.Item) tea.Cmd {
	w, h := a.readerSize()
	a.reader = newReader(it, a.progress.Get(it.ID), w, h)
	a.mode = modeReader
	return renderReaderCmd(it, w, a.readerStyle)
}

// closeReader saves the reading position and returns to the list.
func (a *App) closeReader() {
	if a.reader.ready {
		a.progress.Set(a.reader.item.ID, a.reader.percent())
	}
	a.mode = modeNormal
}

func (a *App) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.closeReader()
		return a, nil
	case "o":
		return a, a.openItemPage(a.reader.item)
	case "d":
		return a, a.openDownload(a.reader.item)
	case "g":
		a.reader.viewport.GotoTop()
		return a, nil
	case "G":
		a.reader.viewport.GotoBottom()
		return a, nil
	}
	var cmd tea.Cmd
	a.reader.viewport, cmd = a.reader.viewport.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  bookshelf")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}
	if a.mode == modeReader {
		return a.renderReader()
	}

	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	panel := ""
	if a.mode == modeSearch {
		panel = a.renderSearchPanel()
	}
	panelHeight := 0
	if panel != "" {
		panelHeight = lipgloss.Height(panel)
	}
	contentHeight := a.height - headerHeight - filterHeight - panelHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1 // gap

	if contentHeight < 3 {
		contentHeight = 3
	}

	// Header
	headerLeft := headerStyle.Render("bookshelf")
	headerRight := headerInfoStyle.Render(fmt.Sprintf("%d items ", a.total))
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Search bar replaces the filter bar while searching
	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.items, a.cursor, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	selected := a.selected()
	progress := 0
	if selected != nil {
		progress = a.progress.Get(selected.ID)
	}
	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(selected, progress, innerPreviewW, contentHeight, a.previewScroll)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(len(a.items), a.total, a.filterBar.activeLabel(), a.query, a.width, a.mode)
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	rows := []string{header, filter}
	if panel != "" {
		rows = append(rows, panel)
	}
	rows = append(rows, body, status)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderSearchPanel lists suggestions for the typed query, or recent
// searches when the input is blank. Matches are marked in titles.
func (a *App) renderSearchPanel() string {
	q := a.searchInput.Value()
	var rows []string
	if strings.TrimSpace(q) == "" {
		if len(a.recent) == 0 {
			return ""
		}
		rows = append(rows, helpDimStyle.Render("  Recent searches · ctrl+d clear"))
		for i, h := range a.recent {
			if i == maxPanelRows {
				break
			}
			rows = append(rows, panelRow(truncateStr(h, a.width-6), i == a.pick))
		}
		return strings.Join(rows, "\n")
	}

	for i, it := range a.suggestions {
		title := search.HighlightFunc(truncateStr(it.Title, a.width-20), q, func(s string) string { return markStyle.Render(s) })
		line := title + " " + itemMetaStyle.Render("· "+it.Category.Label())
		rows = append(rows, panelRow(line, i == a.pick))
	}
	return strings.Join(rows, "\n")
}

func panelRow(s string, picked bool) string {
	if picked {
		return suggestionSelectedStyle.Render("> " + s)
	}
	return suggestionStyle.Render("  " + s)
}

func (a *App) renderReader() string {
	it := a.reader.item
	w, _ := a.readerSize()

	left := readerHeaderStyle.Render(truncateStr(it.Title, w-12))
	right := headerInfoStyle.Render(fmt.Sprintf("%3d%% ", a.reader.percent()))
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	header := left + fmt.Sprintf("%*s", gap, "") + right

	body := a.reader.viewport.View()
	if !a.reader.ready {
		body = lipgloss.Place(a.reader.viewport.Width, a.reader.viewport.Height, lipgloss.Center, lipgloss.Center, helpDimStyle.Render("Rendering..."))
	}
	frame := readerFrameStyle.Render(body)

	status := renderStatusBar(len(a.items), a.total, a.filterBar.activeLabel(), a.query, a.width, a.mode)
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, frame, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("bookshelf")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through the list\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  enter         Read the selected item\n" +
		"  o             Open the item page in the browser\n" +
		"  d             Download, when the item has a file\n" +
		"  /             Search the library\n" +
		"  esc           Clear the current search\n" +
		"  f             Filter by category\n\n" +
		dim.Render("Search") + "\n" +
		"  ↑/↓           Pick a suggestion or recent search\n" +
		"  enter         Apply the search\n" +
		"  ctrl+d        Clear recent searches\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l     Move between categories\n" +
		"  space/enter   Toggle category\n" +
		"  1-3           Toggle category by number\n" +
		"  a             Show all\n\n" +
		dim.Render("Reader") + "\n" +
		"  j/k, pgup/pgdn Scroll\n" +
		"  g/G           Top / bottom\n" +
		"  esc, q        Close and remember position\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
