package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "tradecache",
	Short: "Read-through cache for historical trade queries",
	Long: `tradecache serves historical trade range queries through a
read-through bucket cache.

Queries resolve against fixed-width time buckets held in memory; missing
buckets are fetched whole from the trade archive and retained under an LRU
policy. Sequential scans are detected per instrument and the next bucket in
the scan direction is prefetched before it is asked for.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
