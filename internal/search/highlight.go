package search

import (
	"html"
	"regexp"
	"strings"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Highlight wraps every case-insensitive occurrence of query in <mark> tags.
// The query always matches literally.
func Highlight(text, query string) string {
	return HighlightFunc(text, query, func(s string) string {
		return markOpen + s + markClose
	})
}

// HighlightHTML is Highlight for text headed into an HTML document: the
// text outside and inside the marks is escaped.
func HighlightHTML(text, query string) string {
	re := matcher(query)
	if re == nil || text == "" {
		return html.EscapeString(text)
	}
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString(markOpen)
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString(markClose)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

// HighlightFunc replaces every case-insensitive literal occurrence of query
// with wrap(occurrence). A blank query leaves text unchanged.
func HighlightFunc(text, query string, wrap func(string) string) string {
	re := matcher(query)
	if re == nil || text == "" {
		return text
	}
	return re.ReplaceAllStringFunc(text, wrap)
}

func matcher(query string) *regexp.Regexp {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(q))
	if err != nil {
		return nil
	}
	return re
}
