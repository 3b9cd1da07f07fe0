// Package site renders the library as a static website: an index page,
// one page per item, and the stylesheet and script of the app shell.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/microcosm-cc/bluemonday"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

// DefaultTitle heads every page.
const DefaultTitle = "Bookshelf"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	funcs = template.FuncMap{"spine": content.SpineStyle}

	indexTmpl = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/index.html"))
	itemTmpl  = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/item.html"))

	// Feed content is third-party HTML.
	bodyPolicy = bluemonday.UGCPolicy()
)

type page struct {
	SiteTitle  string
	Title      string
	Items      []content.Item
	Categories []content.Category
	Item       content.Item
	Body       template.HTML
}

// Build renders items into dir, replacing what was there. Pages are
// written to a sibling directory first and swapped in at the end.
func Build(items []content.Item, dir string) error {
	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clearing %s: %w", tmp, err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := copyStatic(tmp); err != nil {
		return err
	}

	index := page{
		SiteTitle:  DefaultTitle,
		Title:      DefaultTitle,
		Items:      items,
		Categories: content.AllCategories(),
	}
	if err := render(indexTmpl, index, filepath.Join(tmp, "index.html")); err != nil {
		return err
	}

	for _, it := range items {
		p := page{
			SiteTitle: DefaultTitle,
			Title:     it.Title + " · " + DefaultTitle,
			Item:      it,
			Body:      template.HTML(bodyPolicy.Sanitize(it.Content)),
		}
		out := filepath.Join(tmp, "items", it.ID, "index.html")
		if err := render(itemTmpl, p, out); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("publishing %s: %w", dir, err)
	}
	return nil
}

func render(t *template.Template, p page, path string) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func copyStatic(dst string) error {
	return fs.WalkDir(staticFS, "static", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := staticFS.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("static", path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		return os.WriteFile(out, data, 0o644)
	})
}
