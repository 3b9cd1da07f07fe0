package search

import (
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

type timed struct {
	next Searcher
	log  *zap.Logger
}

// Timed logs the duration and result count of every query handled by next.
func Timed(next Searcher, log *zap.Logger) Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &timed{next: next, log: log}
}

func (t *timed) Search(query string) []content.Item {
	start := time.Now()
	out := t.next.Search(query)
	t.observe("search", query, len(out), start)
	return out
}

func (t *timed) Suggest(query string) []content.Item {
	start := time.Now()
	out := t.next.Suggest(query)
	t.observe("suggest", query, len(out), start)
	return out
}

func (t *timed) observe(op, query string, n int, start time.Time) {
	t.log.Debug("query served",
		zap.String("op", op),
		zap.String("query", query),
		zap.Int("results", n),
		zap.Duration("took", time.Since(start)))
}
