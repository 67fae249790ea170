package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-flights/browser"
	"github.com/aluiziolira/go-scrape-flights/models"
	"github.com/aluiziolira/go-scrape-flights/pipeline"
)

var (
	headful      bool
	textExport   bool
	snapshotDir  string
	resultsDelay time.Duration
	waitTimeout  time.Duration
)

func init() {
	flags := scrapeCmd.Flags()
	flags.BoolVar(&headful, "headful", false, "Show the browser window")
	flags.BoolVar(&textExport, "text", false, "Also write the plain-text summary")
	flags.StringVar(&snapshotDir, "snapshot-dir", "", "Save the results page HTML under this directory")
	flags.DurationVar(&resultsDelay, "results-delay", 0, "Fixed wait after submitting the search (default: random 30-50s)")
	flags.DurationVar(&waitTimeout, "wait-timeout", 0, "Bound for each element wait (default 5s)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape DEP ARR DEPART_DATE [RETURN_DATE]",
	Short: "Searches the booking site for one route and exports the offers.",
	Long: "Searches the booking site for one route and exports the offers.\n\n" +
		"Dates may be given as YYYY-MM-DD or MM/DD/YYYY. Omitting RETURN_DATE searches one-way.",
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromArgs(args)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("headful") {
			cfg.Headless = !headful
		}
		if flags.Changed("text") {
			cfg.TextExport = textExport
		}
		if flags.Changed("snapshot-dir") {
			cfg.SnapshotDir = snapshotDir
		}
		if flags.Changed("results-delay") {
			cfg.ResultsDelayMin, cfg.ResultsDelayMax = resultsDelay, resultsDelay
		}
		if flags.Changed("wait-timeout") {
			cfg.WaitTimeout = waitTimeout
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		metrics := pipeline.NewMetrics()
		stopMetrics := startMetricsServer(cfg.MetricsAddr, metrics.Registry)
		defer stopMetrics()

		slog.Info("starting scrape",
			slog.String("route", q.BaseName()),
			slog.String("departure_date", q.DepartureDate),
			slog.String("return_date", q.ReturnDate),
			slog.String("trip_type", string(q.TripType)),
		)

		p := pipeline.New(cfg, browser.NewLauncher(cfg), pipeline.WithMetrics(metrics))
		result, err := p.Run(cmd.Context(), q)
		if err != nil {
			return err
		}

		printSummary(result)
		if result.ExportErr != nil {
			return fmt.Errorf("flights extracted but export failed: %w", result.ExportErr)
		}
		return nil
	},
}

func printSummary(result *models.ScrapeResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Scrape complete: %s (%s)\n", result.Query.BaseName(), result.RunID)
	fmt.Printf("  Flights:       %s\n", humanize.Comma(int64(len(result.Records))))
	fmt.Printf("  Cards seen:    %d\n", result.CardsSeen)
	fmt.Printf("  Skipped:       %d\n", result.CardsSkipped)
	fmt.Printf("  Duplicates:    %d\n", result.Duplicates)
	if result.FillFailures > 0 {
		fmt.Printf("  Fill failures: %d\n", result.FillFailures)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	if result.ExportPath != "" {
		fmt.Printf("  Output file:   %s\n", result.ExportPath)
	}
	if result.TextPath != "" {
		fmt.Printf("  Text summary:  %s\n", result.TextPath)
	}
	if result.SnapshotPath != "" {
		fmt.Printf("  Snapshot:      %s\n", result.SnapshotPath)
	}
	if result.ExportErr != nil {
		fmt.Printf("  Export error:  %v\n", result.ExportErr)
	}
	fmt.Println(separator)
}
