// Package classify files feed entries that arrive without a category.
package classify

import (
	"strings"
	"unicode"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

const (
	// Entries at least this long lean towards novels.
	novelWords = 2000
	// Entries this short lean towards quotes.
	quoteWords = 60
	lengthBias = 3
)

var categoryKeywords = map[content.Category][]string{
	content.Novel: {
		"chapter", "novel", "novella", "prologue", "epilogue", "serial",
		"installment", "part one", "book one", "fiction", "story",
	},
	content.Note: {
		"note", "notes", "journal", "diary", "letter", "essay", "thoughts",
		"reflection", "log", "draft", "week", "reading list",
	},
	content.Quote: {
		"quote", "quotes", "quotation", "said", "wrote", "proverb", "aphorism",
		"epigram", "saying", "maxim", "words of",
	},
}

// Classify picks a category for an entry. Title keywords count double,
// length nudges very long or very short entries, and ties go to the
// category that comes first in content.AllCategories. Note is the default.
func Classify(title, text string, words int) content.Category {
	titleTokens := tokenize(title)
	textTokens := tokenize(text)
	titleLower := strings.ToLower(title)
	textLower := strings.ToLower(text)

	best := content.Note
	bestScore := 0
	for _, cat := range content.AllCategories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if !strings.Contains(kw, " ") {
				score += 2 * count(titleTokens, kw)
				score += count(textTokens, kw)
				continue
			}
			// Multi-word keyword: check in pre-lowered text
			if strings.Contains(titleLower, kw) {
				score += 2
			}
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		switch {
		case cat == content.Novel && words >= novelWords:
			score += lengthBias
		case cat == content.Quote && words > 0 && words <= quoteWords:
			score += lengthBias
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best
}

func count(tokens []string, kw string) int {
	n := 0
	for _, t := range tokens {
		if t == kw {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
