package content

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSource is an RSS or Atom feed whose entries join the catalog.
type FeedSource struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Category Category `yaml:"category"`
}

// Fetcher retrieves the items published by one feed.
type Fetcher interface {
	Fetch(ctx context.Context, source FeedSource) ([]Item, error)
}

// Classifier guesses the category of a feed entry from its title and
// plain text. It is used for sources configured without a category.
type Classifier func(title, text string, words int) Category

type FeedFetcher struct {
	parser   *gofeed.Parser
	classify Classifier
}

// NewFeedFetcher returns a fetcher. A nil classify files uncategorized
// entries as notes.
func NewFeedFetcher(classify Classifier) *FeedFetcher {
	return &FeedFetcher{parser: gofeed.NewParser(), classify: classify}
}

func (f *FeedFetcher) Fetch(ctx context.Context, source FeedSource) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	return feedItems(feed, source, f.classify), nil
}

func feedItems(feed *gofeed.Feed, source FeedSource, classify Classifier) []Item {
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		html := entry.Content
		if html == "" {
			html = entry.Description
		}
		text := StripHTML(html)

		var date string
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.Format("2006-01-02")
		} else if entry.UpdatedParsed != nil {
			date = entry.UpdatedParsed.Format("2006-01-02")
		}

		excerpt := StripHTML(entry.Description)
		if excerpt == "" {
			excerpt = text
		}

		words := CountWords(text)
		category := source.Category
		if category == "" {
			category = Note
			if classify != nil {
				category = classify(entry.Title, text, words)
			}
		}
		items = append(items, Item{
			ID:          feedItemID(entry),
			Title:       entry.Title,
			Excerpt:     truncate(excerpt, excerptLen),
			Content:     html,
			Category:    category,
			Date:        date,
			Tags:        append([]string(nil), entry.Categories...),
			WordCount:   words,
			ReadingTime: ReadingTime(words),
		})
	}
	return items
}

func feedItemID(entry *gofeed.Item) string {
	key := entry.GUID
	if key == "" {
		key = entry.Link
	}
	if key == "" {
		key = entry.Title
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("feed-%x", h[:8])
}

type FetchResult struct {
	Items  []Item
	Errors []error
}

// FetchFeeds fetches every source concurrently. Items keep source order.
func FetchFeeds(ctx context.Context, sources []FeedSource, classify Classifier) FetchResult {
	return fetchAll(ctx, NewFeedFetcher(classify), sources)
}

func fetchAll(ctx context.Context, fetcher Fetcher, sources []FeedSource) FetchResult {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var (
		wg      sync.WaitGroup
		perFeed = make([][]Item, len(sources))
		errs    = make([]error, len(sources))
	)
	for i, src := range sources {
		wg.Add(1)
		go func(i int, s FeedSource) {
			defer wg.Done()
			perFeed[i], errs[i] = fetcher.Fetch(ctx, s)
		}(i, src)
	}
	wg.Wait()

	var result FetchResult
	for i := range sources {
		if errs[i] != nil {
			result.Errors = append(result.Errors, errs[i])
			continue
		}
		result.Items = append(result.Items, perFeed[i]...)
	}
	return result
}
