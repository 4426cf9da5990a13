package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quantlayer/tradecache/internal/app"
	"github.com/quantlayer/tradecache/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cache server",
	Long: `Starts the trade cache server, which will:
1. Connect to the configured trade source (postgres or synthetic)
2. Serve range queries over HTTP at /api/trades and /api/summary
3. Cache fetched buckets in memory with LRU eviction
4. Prefetch ahead of detected sequential scans

Configuration is read from the environment; a .env file in the working
directory is loaded first if present.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("inline-prefetch", false, "Run prefetch inline on the query path instead of the worker pool (for debugging)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	inlinePrefetch, _ := cmd.Flags().GetBool("inline-prefetch")

	application, err := app.New(cfg, logger, &app.Options{
		InlinePrefetch: inlinePrefetch,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
