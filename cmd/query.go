package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quantlayer/tradecache/internal/aggregate"
	"github.com/quantlayer/tradecache/internal/app"
	"github.com/quantlayer/tradecache/pkg/config"
	"github.com/quantlayer/tradecache/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a one-shot range query against the trade source",
	Long: `Runs a single range query through the cache and prints the result.

Timestamps are unix seconds or RFC3339. With --summary the aggregate report
is printed instead of the trade list. Useful for smoke-testing a source
configuration without starting the server.`,
	RunE: runQuery,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("instrument", "i", "", "Instrument ID to query (required)")
	queryCmd.Flags().String("start", "", "Range start, inclusive (required)")
	queryCmd.Flags().String("end", "", "Range end, exclusive (required)")
	queryCmd.Flags().Bool("summary", false, "Print the aggregate report instead of trades")
	_ = queryCmd.MarkFlagRequired("instrument")
	_ = queryCmd.MarkFlagRequired("start")
	_ = queryCmd.MarkFlagRequired("end")
}

func runQuery(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger("error")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	instrumentID, _ := cmd.Flags().GetString("instrument")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	summaryOnly, _ := cmd.Flags().GetBool("summary")

	start, err := parseTimestamp(startStr)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end, err := parseTimestamp(endStr)
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}

	// Prefetch workers would outlive a one-shot query; run inline.
	application, err := app.New(cfg, logger, &app.Options{InlinePrefetch: true})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trades, err := application.Dispatcher().Query(ctx, instrumentID, start, end)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if summaryOnly {
		printSummary(instrumentID, start, end, aggregate.Summarize(trades))
		return nil
	}

	printTrades(trades)
	return nil
}

// parseTimestamp accepts unix seconds or RFC3339.
func parseTimestamp(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}

	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected unix seconds or RFC3339, got %q", s)
	}
	return ts.UTC(), nil
}

func printTrades(trades []types.Trade) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tSEQ\tSIDE\tPRICE\tVOLUME")
	for _, t := range trades {
		side := "buy"
		if t.Direction == types.DirectionSell {
			side = "sell"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.4f\t%.4f\n",
			t.Timestamp.UTC().Format(time.RFC3339), t.Sequence, side, t.Price, t.Volume)
	}
	_ = w.Flush()

	fmt.Printf("\n%d trades\n", len(trades))
}

func printSummary(instrumentID string, start, end time.Time, s aggregate.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Instrument:\t%s\n", instrumentID)
	fmt.Fprintf(w, "Range:\t%s - %s\n", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Trades:\t%d\n", s.Trades)
	fmt.Fprintf(w, "Buys:\t%d\n", s.Buys)
	fmt.Fprintf(w, "Sells:\t%d\n", s.Sells)
	fmt.Fprintf(w, "Volume:\t%.4f\n", s.Volume)
	_ = w.Flush()
}
