package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matheuskafuri/bookshelf/internal/site"
)

var flagOutDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the library as a static site",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		defer log.Sync()

		items, err := loadCatalog(context.Background(), cfg, log)
		if err != nil {
			return err
		}

		dir := cfg.SiteDir()
		if flagOutDir != "" {
			dir = flagOutDir
		}
		if err := site.Build(items, dir); err != nil {
			return fmt.Errorf("building site: %w", err)
		}
		log.Info("site built", zap.String("dir", dir), zap.Int("items", len(items)))
		fmt.Fprintf(cmd.OutOrStdout(), "Built %d item(s) into %s\n", len(items), dir)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&flagOutDir, "out", "o", "", "output directory (default: site.dir)")
}
