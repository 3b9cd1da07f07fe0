package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/prefs"
)

var (
	flagClearHistory bool
	flagProgress     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recent searches and reading progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		if flagProgress {
			printProgress(cmd.OutOrStdout(), prefs.NewProgress(db, log).All(), catalogTitles(cmd.Context(), cfg, log))
			return nil
		}

		h := prefs.NewHistory(db, prefs.WithLimit(cfg.Search.HistoryLimit), prefs.WithLogger(log))
		if flagClearHistory {
			h.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Search history cleared.")
			return nil
		}

		queries := h.Load()
		if len(queries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No recent searches.")
			return nil
		}
		for i, q := range queries {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, q)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&flagClearHistory, "clear", false, "forget every recent search")
	historyCmd.Flags().BoolVar(&flagProgress, "progress", false, "list reading progress instead of searches")
}

// printProgress writes one line per item with stored progress. titles maps
// ids to display titles; unknown ids print as-is.
func printProgress(w io.Writer, entries []prefs.Entry, titles map[string]string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing read yet.")
		return
	}
	for _, e := range entries {
		name := e.ID
		if t, ok := titles[e.ID]; ok {
			name = t
		}
		fmt.Fprintf(w, "%3d%%  %s\n", e.Percent, name)
	}
}

// catalogTitles maps ids to titles from local content only; feeds are not
// fetched for a listing.
func catalogTitles(ctx context.Context, cfg *config.Config, log *zap.Logger) map[string]string {
	items, _, err := content.Load(ctx, content.LoadOpts{Dir: cfg.Library.ContentDir})
	if err != nil {
		log.Debug("titles unavailable", zap.Error(err))
		return nil
	}
	titles := make(map[string]string, len(items))
	for _, it := range items {
		titles[it.ID] = it.Title
	}
	return titles
}
