package prefs

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

const (
	HistoryKey   = "librarySearchHistory"
	HistoryLimit = 10
)

// History is the list of recent distinct queries, newest first.
type History struct {
	store Store
	limit int
	log   *zap.Logger
}

type HistoryOption func(*History)

// WithLimit overrides HistoryLimit.
func WithLimit(n int) HistoryOption {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

func WithLogger(log *zap.Logger) HistoryOption {
	return func(h *History) {
		if log != nil {
			h.log = log
		}
	}
}

func NewHistory(store Store, opts ...HistoryOption) *History {
	h := &History{store: store, limit: HistoryLimit, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load returns the stored queries. Absent or corrupt storage reads as empty.
func (h *History) Load() []string {
	raw, ok, err := h.store.GetItem(HistoryKey)
	if err != nil {
		h.log.Warn("reading search history", zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		h.log.Warn("discarding corrupt search history", zap.Error(err))
		return nil
	}

	out := make([]string, 0, len(queries))
	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == h.limit {
			break
		}
	}
	return out
}

// Add records query as the most recent search. A query already present
// moves to the front. Blank queries are ignored.
func (h *History) Add(query string) []string {
	query = strings.TrimSpace(query)
	current := h.Load()
	if query == "" {
		return current
	}

	next := make([]string, 0, h.limit)
	next = append(next, query)
	for _, q := range current {
		if q == query {
			continue
		}
		if len(next) == h.limit {
			break
		}
		next = append(next, q)
	}
	h.save(next)
	return next
}

// Clear forgets every query.
func (h *History) Clear() {
	if err := h.store.RemoveItem(HistoryKey); err != nil {
		h.log.Warn("clearing search history", zap.Error(err))
	}
}

func (h *History) save(queries []string) {
	data, err := json.Marshal(queries)
	if err != nil {
		h.log.Warn("encoding search history", zap.Error(err))
		return
	}
	if err := h.store.SetItem(HistoryKey, string(data)); err != nil {
		h.log.Warn("writing search history", zap.Error(err))
	}
}
