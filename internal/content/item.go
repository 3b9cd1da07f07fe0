// Package content holds the library's catalog: the immutable pieces of
// writing (novels, notes and quotes) and the loaders that produce them.
package content

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateID     = errors.New("duplicate content id")
	ErrMissingID       = errors.New("content id is required")
)

// Category is one of a closed set of content kinds.
type Category string

const (
	Novel Category = "novel"
	Note  Category = "note"
	Quote Category = "quote"
)

// AllCategories returns all valid categories in canonical order.
func AllCategories() []Category {
	return []Category{Novel, Note, Quote}
}

// ParseCategory maps a case-insensitive name (singular or plural) to a Category.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "s")
	for _, c := range AllCategories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: novel, note, quote)", ErrUnknownCategory, s)
}

// Label returns the plural display name used by filters.
func (c Category) Label() string {
	switch c {
	case Novel:
		return "Novels"
	case Note:
		return "Notes"
	case Quote:
		return "Quotes"
	}
	return string(c)
}

// Item is one published piece of writing. Items are immutable once loaded.
type Item struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Excerpt     string   `yaml:"excerpt" json:"excerpt"`
	Content     string   `yaml:"content" json:"content"`
	Category    Category `yaml:"category" json:"category"`
	Date        string   `yaml:"date" json:"date"`
	Tags        []string `yaml:"tags" json:"tags"`
	WordCount   int      `yaml:"word_count" json:"wordCount"`
	ReadingTime int      `yaml:"reading_time" json:"readingTime"`
	DownloadURL string   `yaml:"download_url,omitempty" json:"downloadUrl,omitempty"`

	// Body is the markdown source, when one exists. The reader renders it.
	Body string `yaml:"body,omitempty" json:"-"`
}

// Validate checks that every item has a unique id and a known category.
func Validate(items []Item) error {
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.ID == "" {
			return fmt.Errorf("%w: item %d (%q)", ErrMissingID, i, it.Title)
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
		if _, err := ParseCategory(string(it.Category)); err != nil {
			return fmt.Errorf("item %q: %w", it.ID, err)
		}
	}
	return nil
}

// Filter keeps items in any of the given categories, preserving order.
// With no categories every item is kept.
func Filter(items []Item, categories ...Category) []Item {
	if len(categories) == 0 {
		return items
	}
	want := make(map[Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if want[it.Category] {
			out = append(out, it)
		}
	}
	return out
}

// ByID returns the item with the given id.
func ByID(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
