package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dividend-forecaster",
	Short: "A CLI for the dividend ingestion and forecasting services",
	Long: `Dividend Forecaster syncs distribution history for every held ticker into an earnings ledger
and forecasts future distributions per user and ticker.

Services:
  execution-service serve|run   consume scheduled tasks or run a job once
  scheduling-service serve      cron scheduler and job management API
  migrate up|down               database migrations`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
