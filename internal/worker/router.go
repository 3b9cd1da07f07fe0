package worker

import (
	"context"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/cache"
)

// Destination is what a request is for, as in the Sec-Fetch-Dest header.
type Destination string

const (
	DestDocument Destination = "document"
	DestStyle    Destination = "style"
	DestScript   Destination = "script"
	DestImage    Destination = "image"
	DestFont     Destination = "font"
	DestOther    Destination = ""
)

var extDestinations = map[string]Destination{
	".html":  DestDocument,
	".htm":   DestDocument,
	".css":   DestStyle,
	".js":    DestScript,
	".mjs":   DestScript,
	".png":   DestImage,
	".jpg":   DestImage,
	".jpeg":  DestImage,
	".gif":   DestImage,
	".webp":  DestImage,
	".avif":  DestImage,
	".svg":   DestImage,
	".ico":   DestImage,
	".woff":  DestFont,
	".woff2": DestFont,
	".ttf":   DestFont,
	".otf":   DestFont,
	".eot":   DestFont,
}

// apiPrefix marks origin endpoints that answer with data, not pages.
const apiPrefix = "/api/"

// Classify reports the destination of req. The Sec-Fetch-Dest header wins;
// otherwise the path extension decides. Extensionless paths are documents
// when the client sends no Accept header or one naming text/html. API
// paths are never documents.
func Classify(req *http.Request) Destination {
	if d := strings.ToLower(strings.TrimSpace(req.Header.Get("Sec-Fetch-Dest"))); d != "" {
		if d == "empty" {
			return DestOther
		}
		return Destination(d)
	}
	ext := strings.ToLower(path.Ext(req.URL.Path))
	if dest, ok := extDestinations[ext]; ok {
		return dest
	}
	if ext == "" && !strings.HasPrefix(req.URL.Path, apiPrefix) {
		accept := req.Header.Get("Accept")
		if accept == "" || strings.Contains(accept, "text/html") {
			return DestDocument
		}
	}
	return DestOther
}

func (w *Worker) sameOrigin(req *http.Request) bool {
	return strings.EqualFold(req.URL.Scheme, w.origin.Scheme) &&
		strings.EqualFold(req.URL.Host, w.origin.Host)
}

// RoundTrip answers req from the network and the worker's buckets. Only an
// active worker intercepts; otherwise requests go straight to the network.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || w.State() != Active {
		return w.network.RoundTrip(req)
	}

	dest := Classify(req)
	if !w.sameOrigin(req) {
		if dest == DestFont || dest == DestImage {
			return w.networkOnly(req, w.dynamic), nil
		}
		return w.network.RoundTrip(req)
	}

	switch dest {
	case DestDocument:
		return w.networkFirst(req, w.dynamic, true), nil
	case DestStyle, DestScript:
		return w.staleWhileRevalidate(req), nil
	case DestImage:
		return w.cacheFirst(req, w.dynamic), nil
	default:
		return w.networkFirst(req, w.dynamic, false), nil
	}
}

func (w *Worker) networkOnly(req *http.Request, bucket string) *http.Response {
	e, err := w.fetch(req)
	if err != nil {
		w.log.Debug("network failed", zap.String("url", req.URL.String()), zap.Error(err))
		return notFound(req)
	}
	w.put(req.Context(), bucket, e)
	return toResponse(req, e)
}

func (w *Worker) networkFirst(req *http.Request, bucket string, shell bool) *http.Response {
	ctx := req.Context()
	e, err := w.fetch(req)
	if err == nil {
		w.put(ctx, bucket, e)
		return toResponse(req, e)
	}
	w.log.Debug("network failed, trying cache", zap.String("url", req.URL.String()), zap.Error(err))

	if cached, ok := w.lookup(ctx, cacheKey(req.URL)); ok {
		return toResponse(req, cached)
	}
	if shell {
		if cached, ok := w.lookup(ctx, w.resolve("/")); ok {
			return toResponse(req, cached)
		}
	}
	return notFound(req)
}

func (w *Worker) cacheFirst(req *http.Request, bucket string) *http.Response {
	if cached, ok := w.lookup(req.Context(), cacheKey(req.URL)); ok {
		return toResponse(req, cached)
	}
	return w.networkOnly(req, bucket)
}

func (w *Worker) staleWhileRevalidate(req *http.Request) *http.Response {
	key := cacheKey(req.URL)
	if cached, ok := w.lookup(req.Context(), key); ok {
		w.revalidate(req, key)
		return toResponse(req, cached)
	}
	return w.networkOnly(req, w.static)
}

// revalidate refreshes the static bucket without holding up the caller.
// Concurrent refreshes of the same URL share one fetch. Errors are dropped.
func (w *Worker) revalidate(req *http.Request, key string) {
	ctx := context.WithoutCancel(req.Context())
	bg := req.Clone(ctx)
	w.background.Add(1)
	go func() {
		defer w.background.Done()
		w.revalidating.Do(key, func() (any, error) {
			e, err := w.fetch(bg)
			if err != nil {
				w.log.Debug("revalidation failed", zap.String("url", key), zap.Error(err))
				return nil, err
			}
			w.put(ctx, w.static, e)
			return nil, nil
		})
	}()
}

func (w *Worker) lookup(ctx context.Context, key string) (cache.Entry, bool) {
	e, ok, err := w.store.MatchAny(ctx, key)
	if err != nil {
		w.log.Warn("cache lookup failed", zap.String("url", key), zap.Error(err))
		return cache.Entry{}, false
	}
	return e, ok
}

// put writes e into bucket when it is a success response.
func (w *Worker) put(ctx context.Context, bucket string, e cache.Entry) {
	if !cacheable(e.Status) {
		return
	}
	if err := w.store.Put(ctx, bucket, e); err != nil {
		w.log.Warn("cache write failed", zap.String("bucket", bucket), zap.String("url", e.URL), zap.Error(err))
	}
}
