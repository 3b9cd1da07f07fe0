package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/prefs"
	"github.com/matheuskafuri/bookshelf/internal/search"
	"github.com/matheuskafuri/bookshelf/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search and read the library in the terminal",
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := cache.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	if len(cfg.EnabledFeeds()) > 0 {
		fmt.Println("Fetching feeds...")
	}
	items, err := loadCatalog(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	log.Info("library loaded", zap.Int("items", len(items)))

	index := search.New(items, search.WithSuggestLimit(cfg.Search.SuggestLimit))
	return tui.Run(tui.RunOpts{
		Searcher: search.Timed(index, log.Named("search")),
		History:  prefs.NewHistory(db, prefs.WithLimit(cfg.Search.HistoryLimit), prefs.WithLogger(log)),
		Progress: prefs.NewProgress(db, log),
		Logger:   log.Named("tui"),
		SiteURL:  siteURL(cfg),
		Debounce: cfg.DebounceDuration(),
	})
}
