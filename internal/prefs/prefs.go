// Package prefs keeps the reader's local state: recent searches and
// per-item reading progress. Every operation is best effort. Storage
// failures are logged and read as "no data".
package prefs

// Store is a string key/value space in the manner of browser local storage.
type Store interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}
