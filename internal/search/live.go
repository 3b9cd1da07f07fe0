package search

import (
	"sync/atomic"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

// Live serves queries from the most recently built index. Rebuilds replace
// the whole index at once; a query never sees a partial rebuild.
type Live struct {
	current atomic.Pointer[Index]
	opts    []Option
}

func NewLive(items []content.Item, opts ...Option) *Live {
	l := &Live{opts: opts}
	l.current.Store(New(items, opts...))
	return l
}

// Replace rebuilds the index from items and swaps it in.
func (l *Live) Replace(items []content.Item) {
	l.current.Store(New(items, l.opts...))
}

// Index returns the index currently serving queries.
func (l *Live) Index() *Index {
	return l.current.Load()
}

func (l *Live) Search(query string) []content.Item {
	return l.Index().Search(query)
}

func (l *Live) Suggest(query string) []content.Item {
	return l.Index().Suggest(query)
}
