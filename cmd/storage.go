package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/worker"
)

var flagMaxAge string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the edge cache",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache buckets and their sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		last, ok := db.LastSweep()
		printStats(cmd.OutOrStdout(), dbPath, stats, last, ok)
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete buckets from other cache versions",
	Long: `Delete every bucket that does not belong to the configured cache version.

With --max-age, dynamic entries older than the given age (e.g. 30d, 720h)
are pruned as well.`,
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

		w, err := worker.New(db, nil, worker.Options{
			Origin:   cfg.Origin(),
			Version:  cfg.Edge.CacheVersion,
			Manifest: cfg.Edge.Manifest,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		removed, err := w.Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweeping: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(removed) == 0 {
			fmt.Fprintln(out, "No stale buckets.")
		}
		for _, name := range removed {
			fmt.Fprintf(out, "Deleted bucket %s\n", name)
		}

		if flagMaxAge != "" {
			age, err := parseAge(flagMaxAge)
			if err != nil {
				return fmt.Errorf("invalid --max-age value: %w", err)
			}
			n, err := db.Prune(cmd.Context(), w.DynamicBucket(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pruned %d entr(ies) older than %s.\n", n, formatDuration(age))
		}
		return db.SetLastSweep()
	},
}

func init() {
	sweepCmd.Flags().StringVar(&flagMaxAge, "max-age", "", "also prune dynamic entries older than this (e.g., 30d, 720h)")
	cacheCmd.AddCommand(statsCmd)
	cacheCmd.AddCommand(sweepCmd)
}

func printStats(w io.Writer, dbPath string, stats []cache.BucketStats, lastSweep time.Time, swept bool) {
	fmt.Fprintf(w, "Cache: %s\n", dbPath)
	if len(stats) == 0 {
		fmt.Fprintln(w, "No buckets.")
	}
	var total int64
	for _, s := range stats {
		total += s.Bytes
		fmt.Fprintf(w, "  %-28s %5d entries  %10s  created %s\n",
			s.Name, s.Entries, formatBytes(s.Bytes), s.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	fmt.Fprintf(w, "Total: %s\n", formatBytes(total))
	if swept {
		fmt.Fprintf(w, "Last sweep: %s\n", lastSweep.Local().Format("Jan 2, 2006 15:04"))
	} else {
		fmt.Fprintln(w, "Last sweep: never")
	}
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
