// Package search answers ranked substring queries over the catalog.
//
// The index is a flat list of lowercase text blobs, one per item, built once
// and never mutated. Queries scan every entry; the catalog is small enough
// that an inverted index would only add cost.
//
// # Scoring
//
// For a trimmed, lowercased query q, each entry scores:
//
//   - 100 if the title contains q
//   - 50 for every tag that contains q
//   - 10 if the searchable text contains q
//   - 5 for every whitespace token of q longer than two characters that the
//     searchable text contains (repeated tokens count repeatedly)
//
// Entries scoring zero are dropped. The rest are ordered by descending
// score; equal scores keep catalog order.
//
// # Composition
//
// [Searcher] is the capability other packages depend on. [Index] and [Live]
// implement it, and [Timed] decorates any implementation with logging.
package search
