package worker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultHousekeeping is how often stale buckets are swept.
const DefaultHousekeeping = 24 * time.Hour

// sweepRecorder is implemented by stores that remember when they were last
// swept, so a restart does not wait a full interval.
type sweepRecorder interface {
	NeedsSweep(interval time.Duration) bool
	SetLastSweep() error
}

// Registration is the RoundTripper clients use. It owns which Worker, if
// any, controls traffic.
type Registration struct {
	network http.RoundTripper
	log     *zap.Logger

	mu      sync.RWMutex
	active  *Worker
	workers []*Worker
}

func NewRegistration(network http.RoundTripper, log *zap.Logger) *Registration {
	if network == nil {
		network = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registration{network: network, log: log}
}

// Register installs and activates w, then lets it claim all traffic. The
// previous controller becomes redundant. If w fails to install or activate,
// the previous controller keeps serving.
func (r *Registration) Register(ctx context.Context, w *Worker) error {
	r.mu.Lock()
	r.workers = append(r.workers, w)
	r.mu.Unlock()

	if err := w.Install(ctx); err != nil {
		return err
	}
	if err := w.Activate(ctx); err != nil {
		w.setState(Redundant)
		return err
	}

	r.mu.Lock()
	prev := r.active
	r.active = w
	r.mu.Unlock()

	if prev != nil && prev != w {
		prev.setState(Redundant)
	}
	r.log.Info("worker claimed clients", zap.String("worker", w.ID()))
	return nil
}

// Controller returns the active worker, or nil.
func (r *Registration) Controller() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if w := r.Controller(); w != nil {
		return w.RoundTrip(req)
	}
	return r.network.RoundTrip(req)
}

// RunHousekeeping sweeps stale buckets through the controller every
// interval until ctx is done. A store that remembers its last sweep gets
// an immediate sweep when that one is overdue.
func (r *Registration) RunHousekeeping(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHousekeeping
	}
	if w := r.Controller(); w != nil {
		if rec, ok := w.store.(sweepRecorder); ok && rec.NeedsSweep(interval) {
			r.sweep(ctx)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Registration) sweep(ctx context.Context) {
	w := r.Controller()
	if w == nil {
		return
	}
	removed, err := w.Sweep(ctx)
	if err != nil {
		r.log.Warn("housekeeping failed", zap.Error(err))
		return
	}
	r.log.Info("housekeeping done", zap.Strings("removed", removed))
	if rec, ok := w.store.(sweepRecorder); ok {
		if err := rec.SetLastSweep(); err != nil {
			r.log.Warn("recording sweep", zap.Error(err))
		}
	}
}

// Wait blocks until every registered worker's background work is done.
func (r *Registration) Wait() {
	r.mu.RLock()
	workers := append([]*Worker(nil), r.workers...)
	r.mu.RUnlock()
	for _, w := range workers {
		w.Wait()
	}
}
