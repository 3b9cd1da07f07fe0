package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/search"
)

// Hit is one search result as served by the API.
type Hit struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Excerpt     string           `json:"excerpt"`
	Category    content.Category `json:"category"`
	Date        string           `json:"date,omitempty"`
	Tags        []string         `json:"tags"`
	ReadingTime int              `json:"readingTime"`
	URL         string           `json:"url"`
	// Highlight is the title with query matches wrapped in <mark>. Set only
	// by /api/suggest.
	Highlight string `json:"highlight,omitempty"`
}

type api struct {
	searcher search.Searcher
	log      *zap.Logger
}

// API serves /api/search and /api/suggest over searcher.
func API(searcher search.Searcher, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{searcher: searcher, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", a.search)
	mux.HandleFunc("GET /api/suggest", a.suggest)
	return mux
}

func (a *api) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := a.searcher.Search(q.Get("q"))

	if raw := q.Get("category"); raw != "" {
		var cats []content.Category
		for _, name := range strings.Split(raw, ",") {
			cat, err := content.ParseCategory(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			cats = append(cats, cat)
		}
		items = content.Filter(items, cats...)
	}

	hits := make([]Hit, len(items))
	for i, it := range items {
		hits[i] = toHit(it)
	}
	a.write(w, hits)
}

func (a *api) suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	hits := []Hit{}
	if strings.TrimSpace(query) != "" {
		for _, it := range a.searcher.Suggest(query) {
			h := toHit(it)
			h.Highlight = search.HighlightHTML(it.Title, query)
			hits = append(hits, h)
		}
	}
	a.write(w, hits)
}

func (a *api) write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("writing response", zap.Error(err))
	}
}

func toHit(it content.Item) Hit {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	return Hit{
		ID:          it.ID,
		Title:       it.Title,
		Excerpt:     it.Excerpt,
		Category:    it.Category,
		Date:        it.Date,
		Tags:        tags,
		ReadingTime: it.ReadingTime,
		URL:         "/items/" + it.ID + "/",
	}
}
