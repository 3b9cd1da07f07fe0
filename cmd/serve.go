package cmd

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/search"
	"github.com/matheuskafuri/bookshelf/internal/server"
	"github.com/matheuskafuri/bookshelf/internal/site"
	"github.com/matheuskafuri/bookshelf/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it through the caching edge",
	Long: `Build the static site, serve it with the search API on site.listen, and put
the caching edge on edge.listen. Once the edge has installed its app shell,
pages keep working from cache while the origin is down.

With library.content_dir set, edits to markdown files rebuild the site and
the search index.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	dir := cfg.SiteDir()
	if err := site.Build(items, dir); err != nil {
		return fmt.Errorf("building site: %w", err)
	}
	live := search.NewLive(items, search.WithSuggestLimit(cfg.Search.SuggestLimit))

	originURL, err := url.Parse(cfg.Origin())
	if err != nil {
		return err
	}

	db, err := cache.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	originLn, err := net.Listen("tcp", cfg.Site.Listen)
	if err != nil {
		return fmt.Errorf("origin listener: %w", err)
	}
	edgeLn, err := net.Listen("tcp", cfg.Edge.Listen)
	if err != nil {
		originLn.Close()
		return fmt.Errorf("edge listener: %w", err)
	}

	reg := worker.NewRegistration(nil, log.Named("worker"))
	w, err := worker.New(db, nil, worker.Options{
		Origin:   originURL.String(),
		Version:  cfg.Edge.CacheVersion,
		Manifest: cfg.Edge.Manifest,
		Logger:   log.Named("worker"),
	})
	if err != nil {
		originLn.Close()
		edgeLn.Close()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h := server.OriginMux(dir, search.Timed(live, log.Named("search")), log.Named("origin"))
		return server.Serve(ctx, originLn, h, log.Named("origin"))
	})
	g.Go(func() error {
		return server.Serve(ctx, edgeLn, server.Edge(originURL, reg, log.Named("edge")), log.Named("edge"))
	})
	g.Go(func() error {
		if err := reg.Register(ctx, w); err != nil {
			// The edge passes traffic straight through without a controller.
			log.Warn("edge running without cache", zap.Error(err))
			return nil
		}
		reg.RunHousekeeping(ctx, cfg.HousekeepingInterval())
		return nil
	})
	if cfg.Library.ContentDir != "" {
		g.Go(func() error {
			return content.Watch(ctx, cfg.Library.ContentDir, content.DefaultDebounce, log.Named("watch"), func() {
				reload(ctx, cfg, log, dir, live)
			})
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d item(s) at %s (origin %s)\n", len(items), siteURL(cfg), originURL)
	err = g.Wait()
	reg.Wait()
	return err
}

// reload rebuilds the site and swaps the search index. A failed reload
// keeps serving the previous build.
func reload(ctx context.Context, cfg *config.Config, log *zap.Logger, dir string, live *search.Live) {
	items, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		log.Warn("reload failed", zap.Error(err))
		return
	}
	if err := site.Build(items, dir); err != nil {
		log.Warn("rebuild failed", zap.Error(err))
		return
	}
	live.Replace(items)
	log.Info("library reloaded", zap.Int("items", len(items)))
}
