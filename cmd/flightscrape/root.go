package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-flights/config"
	"github.com/aluiziolira/go-scrape-flights/models"
	"github.com/aluiziolira/go-scrape-flights/parser"
)

var (
	cfg *config.Config

	envFile      string
	verbose      bool
	outputDir    string
	outputFormat string
	metricsAddr  string
	dedupeSize   int
)

var rootCmd = &cobra.Command{
	Use:           "flightscrape",
	Short:         "flightscrape searches the airline booking site and exports the flight offers it finds.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, level := newLogger(verbose)
		slog.SetDefault(logger)
		slog.SetLogLoggerLevel(level.Level())

		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}

		cfg = config.DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("output-dir") {
			cfg.OutputDir = outputDir
		}
		if flags.Changed("format") {
			cfg.OutputFormat = strings.ToLower(outputFormat)
		}
		if flags.Changed("metrics-addr") {
			cfg.MetricsAddr = metricsAddr
		}
		if flags.Changed("dedupe") {
			cfg.DedupeMaxSize = dedupeSize
		}
		cfg.Verbose = verbose
		return nil
	},
}

func init() {
	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file with FLIGHTSCRAPE_* settings")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&outputDir, "output-dir", defaults.OutputDir, "Directory for exported files")
	flags.StringVar(&outputFormat, "format", defaults.OutputFormat, "Output format: csv, json, or dual")
	flags.StringVar(&metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.IntVar(&dedupeSize, "dedupe", defaults.DedupeMaxSize, "Drop repeated flight cards, remembering up to N (0 keeps every card)")
}

// queryFromArgs builds a query from DEP ARR DEPART [RETURN], accepting
// ISO or site-formatted dates.
func queryFromArgs(args []string) (models.Query, error) {
	depart, err := parser.SiteDate(args[2])
	if err != nil {
		return models.Query{}, err
	}
	var ret string
	if len(args) > 3 {
		if ret, err = parser.SiteDate(args[3]); err != nil {
			return models.Query{}, err
		}
	}
	return models.NewQuery(args[0], args[1], depart, ret)
}

func startMetricsServer(addr string, reg *prometheus.Registry) func() {
	if addr == "" || reg == nil {
		return func() {}
	}
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
