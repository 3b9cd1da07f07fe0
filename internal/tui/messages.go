package tui

// suggestTickMsg fires once the input has been idle for the debounce
// interval. Ticks whose seq is not the latest are stale and dropped.
type suggestTickMsg struct {
	seq   int
	query string
}

type readerRenderedMsg struct {
	id   string
	text string
	err  error
}

type errMsg struct {
	err error
}
