package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"BlogScraper/internal/app"
	"BlogScraper/internal/config"
	"BlogScraper/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "blogscraper",
		Short:         "Ingest the oldest BeyondChats blog articles and serve them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults to $BLOGSCRAPER_CONFIG)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, func(ctx context.Context, application *app.Application) error {
				return application.Serve(ctx)
			})
		},
	}

	var count int
	scrape := &cobra.Command{
		Use:   "scrape",
		Short: "Ingest the oldest articles once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, func(ctx context.Context, application *app.Application) error {
				result, err := application.Scrape(ctx, count)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	}
	scrape.Flags().IntVar(&count, "count", 0, "number of articles to collect (defaults to scraper.targetCount)")

	root.AddCommand(serve, scrape)
	root.RunE = serve.RunE
	return root
}

func run(ctx context.Context, configPath string, fn func(context.Context, *app.Application) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application failed to start", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	if err := fn(ctx, application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
