package worker

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/matheuskafuri/bookshelf/internal/cache"
)

func cacheable(status int) bool {
	return status >= 200 && status < 300
}

// cacheKey drops the fragment, which never reaches the server.
func cacheKey(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}

// fetch reads the network response in full so the body can be handed to
// both the store and the caller.
func (w *Worker) fetch(req *http.Request) (cache.Entry, error) {
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return cache.Entry{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("reading body: %w", err)
	}
	return cache.Entry{
		URL:    cacheKey(req.URL),
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

func toResponse(req *http.Request, e cache.Entry) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// notFound is the empty response served when nothing else can answer.
func notFound(req *http.Request) *http.Response {
	return toResponse(req, cache.Entry{Status: http.StatusNotFound, Header: http.Header{}})
}
