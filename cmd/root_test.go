package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/prefs"
	"github.com/matheuskafuri/bookshelf/internal/search"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseAge(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseAge(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAge(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAge(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSiteURL(t *testing.T) {
	tests := []struct {
		listen, want string
	}{
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{":9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		cfg := &config.Config{Edge: config.Edge{Listen: tt.listen}}
		if got := siteURL(cfg); got != tt.want {
			t.Errorf("siteURL(%q) = %q, want %q", tt.listen, got, tt.want)
		}
	}
}

func TestParseCategories(t *testing.T) {
	got, err := parseCategories([]string{"Novels", "quote"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]content.Category{content.Novel, content.Quote}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := parseCategories([]string{"poems"}); err == nil {
		t.Error("unknown category should fail")
	}
}

func TestFilterResults(t *testing.T) {
	results := []search.Result{
		{Item: content.Item{ID: "a", Category: content.Novel}, Score: 110},
		{Item: content.Item{ID: "b", Category: content.Note}, Score: 60},
		{Item: content.Item{ID: "c", Category: content.Novel}, Score: 5},
	}

	got := filterResults(results, []content.Category{content.Novel}, 0)
	if len(got) != 2 || got[0].Item.ID != "a" || got[1].Item.ID != "c" {
		t.Errorf("novels = %+v", got)
	}
	if len(results) != 3 || results[1].Item.ID != "b" {
		t.Error("filtering must not modify the input")
	}

	got = filterResults(results, nil, 1)
	if len(got) != 1 || got[0].Item.ID != "a" {
		t.Errorf("limit 1 = %+v", got)
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, "sun", nil)
	if !strings.Contains(buf.String(), `No matches for "sun"`) {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	printResults(&buf, "sun", []search.Result{{
		Item:  content.Item{Title: "When the Sun Fades", Category: content.Novel, Date: "2024-06-15", Excerpt: "A summer of goodbyes."},
		Score: 115,
	}})
	out := buf.String()
	for _, want := range []string{" 1.", "Sun", "Novels", "score 115", "A summer of goodbyes."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	stats := []cache.BucketStats{
		{Name: "library-static-v1", Entries: 3, Bytes: 2048, CreatedAt: time.Now()},
		{Name: "library-dynamic-v1", Entries: 1, Bytes: 100, CreatedAt: time.Now()},
	}
	printStats(&buf, "/tmp/cache.db", stats, time.Time{}, false)
	out := buf.String()
	for _, want := range []string{"library-static-v1", "2.0 KB", "Total: 2.1 KB", "Last sweep: never"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintProgress(t *testing.T) {
	store := cache.NewMemory()
	p := prefs.NewProgress(store, nil)
	p.Set("when-the-sun-fades", 40)
	p.Set("gone-feed-entry", 100)

	var buf bytes.Buffer
	printProgress(&buf, p.All(), map[string]string{"when-the-sun-fades": "When the Sun Fades"})
	want := "100%  gone-feed-entry\n 40%  When the Sun Fades\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	printProgress(&buf, prefs.NewProgress(cache.NewMemory(), nil).All(), nil)
	if !strings.Contains(buf.String(), "Nothing read yet") {
		t.Errorf("expected empty message, got %q", buf.String())
	}
}
