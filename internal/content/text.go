package content

import (
	"hash/fnv"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const wordsPerMinute = 200

// SpineStyles is the number of decorative spine variants.
const SpineStyles = 8

var (
	stripPolicy   = bluemonday.StrictPolicy()
	blockBoundary = regexp.MustCompile(`(?i)(</(p|div|li|h[1-6]|blockquote|pre|tr|td|th|section|article)>|<br\s*/?>)`)
)

// StripHTML removes all markup, decodes entities and collapses whitespace.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = blockBoundary.ReplaceAllString(s, "$1 ")
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// CountWords counts whitespace-separated words in plain text.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// ReadingTime returns whole minutes at 200 words per minute, at least one.
func ReadingTime(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// SpineStyle picks a decorative style for a title. Same title, same style.
func SpineStyle(title string) int {
	h := fnv.New32a()
	h.Write([]byte(title))
	return int(h.Sum32() % SpineStyles)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
