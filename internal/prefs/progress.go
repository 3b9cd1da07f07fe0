package prefs

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ProgressPrefix prefixes the per-item reading progress keys.
const ProgressPrefix = "readingProgress:"

// Progress stores how far into each item the reader got, as a percentage.
type Progress struct {
	store Store
	log   *zap.Logger
}

func NewProgress(store Store, log *zap.Logger) *Progress {
	if log == nil {
		log = zap.NewNop()
	}
	return &Progress{store: store, log: log}
}

func ProgressKey(id string) string {
	return ProgressPrefix + id
}

// Get returns the stored percentage for id, or 0. A corrupt value is
// removed.
func (p *Progress) Get(id string) int {
	n, _ := p.read(id)
	return n
}

// read reports the stored percentage for id and whether a valid one exists.
func (p *Progress) read(id string) (int, bool) {
	key := ProgressKey(id)
	raw, ok, err := p.store.GetItem(key)
	if err != nil {
		p.log.Warn("reading progress", zap.String("id", id), zap.Error(err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > 100 {
		p.log.Warn("resetting corrupt progress", zap.String("id", id), zap.String("value", raw))
		if err := p.store.RemoveItem(key); err != nil {
			p.log.Warn("removing progress", zap.String("id", id), zap.Error(err))
		}
		return 0, false
	}
	return n, true
}

// Set stores percent for id, clamped to [0, 100], and returns the stored
// value.
func (p *Progress) Set(id string, percent int) int {
	percent = clamp(percent)
	if err := p.store.SetItem(ProgressKey(id), strconv.Itoa(percent)); err != nil {
		p.log.Warn("writing progress", zap.String("id", id), zap.Error(err))
	}
	return percent
}

// Entry is the stored progress for one item.
type Entry struct {
	ID      string
	Percent int
}

// All returns every item with stored progress, ordered by id. Stores that
// cannot list keys report nothing. Corrupt values are dropped as in Get.
func (p *Progress) All() []Entry {
	lister, ok := p.store.(KeyLister)
	if !ok {
		return nil
	}
	keys, err := lister.Keys(ProgressPrefix)
	if err != nil {
		p.log.Warn("listing progress", zap.Error(err))
		return nil
	}
	var entries []Entry
	for _, key := range keys {
		id := strings.TrimPrefix(key, ProgressPrefix)
		if n, ok := p.read(id); ok {
			entries = append(entries, Entry{ID: id, Percent: n})
		}
	}
	return entries
}

// Percent converts a scroll position to a percentage of a document.
func Percent(offset, total int) int {
	if total <= 0 {
		return 100
	}
	return clamp(offset * 100 / total)
}

func clamp(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
