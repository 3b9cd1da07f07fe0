package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/bookshelf/internal/cache"
	"github.com/matheuskafuri/bookshelf/internal/config"
	"github.com/matheuskafuri/bookshelf/internal/content"
	"github.com/matheuskafuri/bookshelf/internal/prefs"
	"github.com/matheuskafuri/bookshelf/internal/search"
)

var (
	flagCategories []string
	flagLimit      int
	flagNoHistory  bool
)

var (
	markStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank the library against a query",
	Long: `Score every item against the query and print matches, best first.
Title matches weigh most, then tags, then body text and individual words.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		defer log.Sync()

		categories, err := parseCategories(flagCategories)
		if err != nil {
			return err
		}

		items, err := loadCatalog(context.Background(), cfg, log)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		results := filterResults(search.New(items).Rank(query, 0), categories, flagLimit)
		printResults(cmd.OutOrStdout(), query, results)

		if !flagNoHistory {
			db, err := cache.Open(config.CachePath())
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer db.Close()
			prefs.NewHistory(db, prefs.WithLimit(cfg.Search.HistoryLimit), prefs.WithLogger(log)).Add(query)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringSliceVarP(&flagCategories, "category", "c", nil, "only show these categories (novel, note, quote)")
	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "show at most this many results (0 for all)")
	searchCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record the query in search history")
}

func parseCategories(names []string) ([]content.Category, error) {
	var out []content.Category
	for _, n := range names {
		c, err := content.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func filterResults(results []search.Result, categories []content.Category, limit int) []search.Result {
	if len(categories) > 0 {
		want := make(map[content.Category]bool, len(categories))
		for _, c := range categories {
			want[c] = true
		}
		kept := results[:0:0]
		for _, r := range results {
			if want[r.Item.Category] {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func printResults(w io.Writer, query string, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No matches for %q.\n", query)
		return
	}
	for i, r := range results {
		it := r.Item
		title := search.HighlightFunc(it.Title, query, func(s string) string { return markStyle.Render(s) })
		fmt.Fprintf(w, "%2d. %s %s\n", i+1, titleStyle.Render(title),
			dimStyle.Render(fmt.Sprintf("(%s · %s · score %d)", it.Category.Label(), it.Date, r.Score)))
		if it.Excerpt != "" {
			fmt.Fprintf(w, "    %s\n", search.HighlightFunc(it.Excerpt, query, func(s string) string { return markStyle.Render(s) }))
		}
	}
}
