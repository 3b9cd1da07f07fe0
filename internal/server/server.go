// Package server holds the HTTP surfaces of bookshelf: the origin that
// serves the built site and the search API, and the caching edge in front
// of it.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/search"
)

const shutdownTimeout = 5 * time.Second

// OriginMux combines the static site in dir with the search API.
func OriginMux(dir string, searcher search.Searcher, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", API(searcher, log))
	mux.Handle("/", Origin(dir))
	return mux
}

// Serve serves h on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(log),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
