package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-flights/export"
	"github.com/aluiziolira/go-scrape-flights/pipeline"
	"github.com/aluiziolira/go-scrape-flights/scraper"
)

var replayExport bool

func init() {
	replayCmd.Flags().BoolVar(&replayExport, "export", false, "Write the extracted flights to the output directory")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay SNAPSHOT DEP ARR DEPART_DATE [RETURN_DATE]",
	Short: "Re-extracts flights from a saved results page.",
	Long: "Re-extracts flights from a saved results page (a path, file:// or http(s):// URL),\n" +
		"using the same selectors and fare rules as a live scrape.",
	Args: cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromArgs(args[1:])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		metrics := pipeline.NewMetrics()
		stopMetrics := startMetricsServer(cfg.MetricsAddr, metrics.Registry)
		defer stopMetrics()

		result, err := scraper.NewReplayer(cfg, metrics).Replay(cmd.Context(), args[0], q)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "Flights", "Departs", "Arrives", "Duration", "Basic", "Main", "First"})
		for _, rec := range result.Records {
			t.AppendRow(table.Row{
				rec.ID,
				strings.Join(rec.FlightNumbers, ", "),
				rec.DepartureTime,
				rec.ArrivalTime,
				rec.Duration,
				rec.Fares.BasicEconomy,
				rec.Fares.MainCabin,
				rec.Fares.FirstClass,
			})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d cards, %d skipped", result.CardsSeen, result.CardsSkipped)})
		t.Render()

		if !replayExport {
			return nil
		}
		path, textPath, err := export.FromConfig(cfg).Export(result.Bundle())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "exported %s\n", path)
		if textPath != "" {
			fmt.Fprintf(os.Stdout, "exported %s\n", textPath)
		}
		return nil
	},
}
