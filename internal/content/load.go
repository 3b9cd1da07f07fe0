package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const excerptLen = 160

var dateFormats = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

type frontMatter struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Excerpt     string   `yaml:"excerpt"`
	Category    string   `yaml:"category"`
	Date        string   `yaml:"date"`
	Tags        []string `yaml:"tags"`
	WordCount   int      `yaml:"word_count"`
	ReadingTime int      `yaml:"reading_time"`
	DownloadURL string   `yaml:"download_url"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// LoadOpts selects where the catalog comes from.
type LoadOpts struct {
	// Dir is a directory of markdown files. Empty means the embedded dataset.
	Dir   string
	Feeds []FeedSource

	// Classify categorizes entries from feeds configured without one.
	Classify Classifier
}

// Load builds the full catalog. Local content must be valid or the load
// fails. Feed failures, including entries whose id is already taken by local
// content or an earlier feed, are returned alongside the items and the
// offending entries are dropped.
func Load(ctx context.Context, opts LoadOpts) ([]Item, []error, error) {
	var (
		items []Item
		err   error
	)
	if opts.Dir != "" {
		items, err = LoadDir(opts.Dir)
	} else {
		items, err = Embedded()
	}
	if err != nil {
		return nil, nil, err
	}
	if err := Validate(items); err != nil {
		return nil, nil, err
	}

	var feedErrs []error
	if len(opts.Feeds) > 0 {
		result := FetchFeeds(ctx, opts.Feeds, opts.Classify)
		feedErrs = result.Errors
		var dropped []error
		items, dropped = mergeFeedItems(items, result.Items)
		feedErrs = append(feedErrs, dropped...)
	}

	if err := Validate(items); err != nil {
		return nil, feedErrs, err
	}
	return items, feedErrs, nil
}

// mergeFeedItems appends feed entries to local, skipping any whose id is
// already present. The first occurrence wins.
func mergeFeedItems(local, feed []Item) ([]Item, []error) {
	seen := make(map[string]bool, len(local)+len(feed))
	for _, it := range local {
		seen[it.ID] = true
	}
	var errs []error
	for _, it := range feed {
		if seen[it.ID] {
			errs = append(errs, fmt.Errorf("%w: feed entry %q (%s)", ErrDuplicateID, it.ID, it.Title))
			continue
		}
		seen[it.ID] = true
		local = append(local, it)
	}
	return local, errs
}

// LoadDir reads every markdown file below dir. Items are ordered newest
// first; undated items keep walk order at the end.
func LoadDir(dir string) ([]Item, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading content dir: %w", err)
	}

	var items []Item
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		item, err := ParseMarkdown(d.Name(), data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date == "" {
			return false
		}
		if items[j].Date == "" {
			return true
		}
		return items[i].Date > items[j].Date
	})
	return items, nil
}

// ParseMarkdown turns one markdown document with optional front matter into
// an Item. name is the file name and supplies the default id and title.
func ParseMarkdown(name string, data []byte) (Item, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		// no usable front matter: treat the whole file as markdown
		body = data
		fm = frontMatter{}
	}

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return Item{}, fmt.Errorf("rendering markdown: %w", err)
	}

	slug := strings.TrimSuffix(name, filepath.Ext(name))
	item := Item{
		ID:          fm.ID,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Content:     buf.String(),
		Date:        normalizeDate(fm.Date),
		Tags:        fm.Tags,
		WordCount:   fm.WordCount,
		ReadingTime: fm.ReadingTime,
		DownloadURL: fm.DownloadURL,
		Body:        string(body),
	}
	if item.ID == "" {
		item.ID = strings.ToLower(slug)
	}
	if item.Title == "" {
		words := strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "_", " ")
		item.Title = cases.Title(language.English).String(words)
	}

	category := Note
	if fm.Category != "" {
		category, err = ParseCategory(fm.Category)
		if err != nil {
			return Item{}, err
		}
	}
	item.Category = category

	text := StripHTML(item.Content)
	if item.WordCount <= 0 {
		item.WordCount = CountWords(text)
	}
	if item.ReadingTime <= 0 {
		item.ReadingTime = ReadingTime(item.WordCount)
	}
	if item.Excerpt == "" {
		item.Excerpt = truncate(text, excerptLen)
	}
	return item, nil
}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
