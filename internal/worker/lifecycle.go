package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matheuskafuri/bookshelf/internal/cache"
)

var (
	ErrInstallFailed = errors.New("install failed")
	ErrNotInstalled  = errors.New("worker is not waiting to activate")
	ErrBadOrigin     = errors.New("origin must be an absolute http(s) URL")
)

// DefaultVersion names the bucket generation when none is configured.
const DefaultVersion = "v1"

type State int

const (
	Installing State = iota
	Waiting
	Active
	Redundant
)

func (s State) String() string {
	switch s {
	case Installing:
		return "installing"
	case Waiting:
		return "waiting"
	case Active:
		return "active"
	case Redundant:
		return "redundant"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Storage is the bucket store a Worker caches into.
type Storage interface {
	OpenBucket(ctx context.Context, name string) error
	Put(ctx context.Context, bucket string, e cache.Entry) error
	Match(ctx context.Context, bucket, url string) (cache.Entry, bool, error)
	MatchAny(ctx context.Context, url string) (cache.Entry, bool, error)
	DeleteBucket(ctx context.Context, name string) (bool, error)
	Buckets(ctx context.Context) ([]string, error)
}

type Options struct {
	// Origin is the base URL whose requests count as same-origin.
	Origin string
	// Version suffixes both bucket names. Changing it retires old buckets.
	Version string
	// Manifest lists the app-shell paths fetched at install.
	Manifest []string
	Logger   *zap.Logger
}

// Worker is one cache generation.
type Worker struct {
	id       string
	origin   *url.URL
	static   string
	dynamic  string
	manifest []string

	store   Storage
	network http.RoundTripper
	log     *zap.Logger

	mu    sync.RWMutex
	state State

	revalidating singleflight.Group
	background   sync.WaitGroup
}

// New returns a Worker in the installing state.
func New(store Storage, network http.RoundTripper, opts Options) (*Worker, error) {
	origin, err := url.Parse(opts.Origin)
	if err != nil || origin.Host == "" || (origin.Scheme != "http" && origin.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrBadOrigin, opts.Origin)
	}
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	if network == nil {
		network = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	id := uuid.NewString()
	return &Worker{
		id:       id,
		origin:   &url.URL{Scheme: origin.Scheme, Host: origin.Host},
		static:   StaticBucket(version),
		dynamic:  DynamicBucket(version),
		manifest: append([]string(nil), opts.Manifest...),
		store:    store,
		network:  network,
		log:      log.With(zap.String("worker", id[:8]), zap.String("version", version)),
		state:    Installing,
	}, nil
}

func StaticBucket(version string) string  { return "library-static-" + version }
func DynamicBucket(version string) string { return "library-dynamic-" + version }

func (w *Worker) ID() string            { return w.id }
func (w *Worker) StaticBucket() string  { return w.static }
func (w *Worker) DynamicBucket() string { return w.dynamic }

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	prev := w.state
	w.state = s
	w.mu.Unlock()
	if prev != s {
		w.log.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Install fetches every manifest path and stores them in the static bucket.
// Nothing is stored unless every fetch returns 2xx. On failure the worker
// becomes redundant and the error wraps ErrInstallFailed.
func (w *Worker) Install(ctx context.Context) error {
	if s := w.State(); s != Installing {
		return fmt.Errorf("%w: cannot install from %s", ErrInstallFailed, s)
	}

	entries := make([]cache.Entry, len(w.manifest))
	var g errgroup.Group
	for i, p := range w.manifest {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.resolve(p), nil)
			if err != nil {
				return fmt.Errorf("building request for %s: %w", p, err)
			}
			e, err := w.fetch(req)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", p, err)
			}
			if !cacheable(e.Status) {
				return fmt.Errorf("fetching %s: status %d", p, e.Status)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return w.failInstall(err)
	}

	for _, b := range []string{w.static, w.dynamic} {
		if err := w.store.OpenBucket(ctx, b); err != nil {
			return w.failInstall(err)
		}
	}
	for _, e := range entries {
		if err := w.store.Put(ctx, w.static, e); err != nil {
			return w.failInstall(err)
		}
	}

	w.log.Info("installed", zap.Int("assets", len(entries)))
	w.setState(Waiting)
	return nil
}

func (w *Worker) failInstall(err error) error {
	w.log.Warn("install failed", zap.Error(err))
	w.setState(Redundant)
	return fmt.Errorf("%w: %w", ErrInstallFailed, err)
}

// Activate retires every bucket that is not one of this worker's two
// buckets and starts serving.
func (w *Worker) Activate(ctx context.Context) error {
	if s := w.State(); s != Waiting {
		return fmt.Errorf("%w: state is %s", ErrNotInstalled, s)
	}
	if _, err := w.Sweep(ctx); err != nil {
		return fmt.Errorf("activating: %w", err)
	}
	w.setState(Active)
	w.log.Info("activated")
	return nil
}

// Sweep deletes stale buckets and returns their names.
func (w *Worker) Sweep(ctx context.Context) ([]string, error) {
	names, err := w.store.Buckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	var removed []string
	for _, name := range names {
		if name == w.static || name == w.dynamic {
			continue
		}
		ok, err := w.store.DeleteBucket(ctx, name)
		if err != nil {
			return removed, fmt.Errorf("deleting bucket %s: %w", name, err)
		}
		if ok {
			removed = append(removed, name)
			w.log.Info("deleted stale bucket", zap.String("bucket", name))
		}
	}
	return removed, nil
}

// Wait blocks until background revalidations started so far have finished.
func (w *Worker) Wait() {
	w.background.Wait()
}

func (w *Worker) resolve(p string) string {
	ref, err := url.Parse(p)
	if err != nil {
		return strings.TrimRight(w.origin.String(), "/") + "/" + strings.TrimLeft(p, "/")
	}
	return w.origin.ResolveReference(ref).String()
}
