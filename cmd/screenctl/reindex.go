package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/cv-screener/internal/bootstrap"
	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the report search index from stored report metadata",
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg := config.Load()
	logger := bootstrap.NewLogger(cfg)

	if !cfg.SearchEnabled() {
		return fmt.Errorf("report search is not configured (set QDRANT_URL and GEMINI_API_KEY)")
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return err
	}
	storage, err := bootstrap.NewStorage(ctx, cfg)
	if err != nil {
		return err
	}
	index, err := bootstrap.NewReportIndex(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}

	catalog := services.NewReportCatalog(repositories.NewReportRepository(db), storage, index, logger)
	indexed, err := catalog.Reindex(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "📋 Indexed %d reports\n", indexed)
	return err
}
