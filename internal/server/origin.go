package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Origin serves the static site in dir. Directories without an index.html
// are not listed.
func Origin(dir string) http.Handler {
	root := os.DirFS(dir)
	files := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			index := path.Join(strings.TrimPrefix(r.URL.Path, "/"), "index.html")
			if _, err := fs.Stat(root, index); errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
		}
		// The edge decides what to cache; browsers always revalidate.
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		files.ServeHTTP(w, r)
	})
}
