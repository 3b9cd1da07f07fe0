package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/classify"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/logging"
	"github.com/matheuskafuri/bookshelf/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "A personal library of novels, notes and quotes",
	Long: `bookshelf publishes a personal library as a static site, serves it through
an offline-capable caching edge, and lets you search and read it from the terminal.`,
	SilenceUsage: true,
	RunE:         runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "check for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
}

var flagCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bookshelf %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheck {
			return
		}
		rel, err := update.Checker{}.Newer(cmd.Context(), version)
		switch {
		case errors.Is(err, update.ErrDevBuild):
			fmt.Println("Development build; skipping release check.")
		case err != nil:
			fmt.Fprintf(os.Stderr, "release check failed: %v\n", err)
		case rel != nil:
			fmt.Printf("A newer version is available: %s\n", rel.Version)
			if rel.URL != "" {
				fmt.Println(rel.URL)
			}
		default:
			fmt.Println("You are running the latest version.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// setup loads the config and builds the logger. The TUI logs to a file so
// the screen stays clean; everything else logs to stderr.
func setup(logToFile bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	path := ""
	if logToFile {
		path = config.LogPath()
	}
	log, err := logging.New(level, path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}

// loadCatalog reads the library and any enabled feeds. Feed failures are
// logged and skipped.
func loadCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]content.Item, error) {
	items, feedErrs, err := content.Load(ctx, content.LoadOpts{
		Dir:      cfg.Library.ContentDir,
		Feeds:    cfg.EnabledFeeds(),
		Classify: classify.Classify,
	})
	for _, e := range feedErrs {
		log.Warn("feed skipped", zap.Error(e))
	}
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	return items, nil
}

// siteURL is the address readers use: the edge, not the origin.
func siteURL(cfg *config.Config) string {
	addr := cfg.Edge.Listen
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

// parseAge accepts Go durations plus an "Nd" day form.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
