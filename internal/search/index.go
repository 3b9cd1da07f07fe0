package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

// DefaultSuggestLimit caps suggestion lists.
const DefaultSuggestLimit = 5

const (
	titleScore = 100
	tagScore   = 50
	textScore  = 10
	tokenScore = 5

	minTokenLen = 3
)

// Searcher is the query capability shared by the index and its decorators.
type Searcher interface {
	// Search returns every matching item, best first.
	Search(query string) []content.Item
	// Suggest returns at most the suggestion limit of matching items.
	Suggest(query string) []content.Item
}

// Entry is the precomputed searchable form of one item.
type Entry struct {
	ID   string
	Text string
}

// Result pairs an item with its relevance score.
type Result struct {
	Item  content.Item
	Score int
}

// Index is read-only after New and safe for concurrent queries.
type Index struct {
	items        []content.Item
	entries      []Entry
	suggestLimit int
}

// Option configures an Index.
type Option func(*Index)

// WithSuggestLimit overrides DefaultSuggestLimit.
func WithSuggestLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.suggestLimit = n
		}
	}
}

// New builds an index over items. The slice is copied.
func New(items []content.Item, opts ...Option) *Index {
	ix := &Index{
		items:        append([]content.Item(nil), items...),
		entries:      make([]Entry, len(items)),
		suggestLimit: DefaultSuggestLimit,
	}
	for _, opt := range opts {
		opt(ix)
	}
	for i, it := range ix.items {
		ix.entries[i] = NewEntry(it)
	}
	return ix
}

// NewEntry derives the searchable text of an item.
func NewEntry(it content.Item) Entry {
	text := strings.Join([]string{
		it.Title,
		it.Excerpt,
		content.StripHTML(it.Content),
		strings.Join(it.Tags, " "),
		string(it.Category),
	}, " ")
	return Entry{ID: it.ID, Text: strings.ToLower(text)}
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	return len(ix.items)
}

// Items returns the catalog in index order.
func (ix *Index) Items() []content.Item {
	return append([]content.Item(nil), ix.items...)
}

// Entries returns the precomputed entries in index order.
func (ix *Index) Entries() []Entry {
	return append([]Entry(nil), ix.entries...)
}

func (ix *Index) Search(query string) []content.Item {
	return items(ix.Rank(query, 0))
}

func (ix *Index) Suggest(query string) []content.Item {
	return items(ix.Rank(query, ix.suggestLimit))
}

// Rank scores every entry against query. A limit of zero or less means
// unbounded. A blank query returns every item with score zero, in order.
func (ix *Index) Rank(query string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		results := make([]Result, len(ix.items))
		for i, it := range ix.items {
			results[i] = Result{Item: it}
		}
		return capResults(results, limit)
	}

	tokens := strings.Fields(q)
	var results []Result
	for i, entry := range ix.entries {
		if s := score(ix.items[i], entry, q, tokens); s > 0 {
			results = append(results, Result{Item: ix.items[i], Score: s})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return capResults(results, limit)
}

// Score computes the relevance of one item for query.
func Score(it content.Item, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	return score(it, NewEntry(it), q, strings.Fields(q))
}

func score(it content.Item, entry Entry, q string, tokens []string) int {
	s := 0
	if strings.Contains(strings.ToLower(it.Title), q) {
		s += titleScore
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			s += tagScore
		}
	}
	if strings.Contains(entry.Text, q) {
		s += textScore
	}
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= minTokenLen && strings.Contains(entry.Text, tok) {
			s += tokenScore
		}
	}
	return s
}

func capResults(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func items(results []Result) []content.Item {
	out := make([]content.Item, len(results))
	for i, r := range results {
		out[i] = r.Item
	}
	return out
}
