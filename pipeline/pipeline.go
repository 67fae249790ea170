// Package pipeline drives one flight search from an empty browser to an
// exported file.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-flights/browser"
	"github.com/aluiziolira/go-scrape-flights/config"
	"github.com/aluiziolira/go-scrape-flights/export"
	"github.com/aluiziolira/go-scrape-flights/extract"
	"github.com/aluiziolira/go-scrape-flights/models"
)

// Pipeline runs searches one at a time. Each Run owns a fresh browser.
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	launch    browser.Launcher
	extractor *extract.Extractor
	exporter  *export.Exporter
	metrics   *Metrics

	fillPace     browser.Pacer
	resultsDelay browser.Pacer

	trail     []State
	lastState time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithExtractor replaces the default results-page extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = x }
}

// WithExporter replaces the exporter derived from the config.
func WithExporter(e *export.Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// New builds a pipeline that starts browsers with launch.
func New(cfg *config.Config, launch browser.Launcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:          cfg,
		launch:       launch,
		extractor:    extract.New(extract.DefaultSelectors()),
		exporter:     export.FromConfig(cfg),
		fillPace:     browser.Pacer{Min: cfg.PaceMin, Max: cfg.PaceMax},
		resultsDelay: browser.Pacer{Min: cfg.ResultsDelayMin, Max: cfg.ResultsDelayMax},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Trail returns the states the last run passed through, in order.
func (p *Pipeline) Trail() []State {
	return append([]State(nil), p.trail...)
}

// State returns the last state reached.
func (p *Pipeline) State() State {
	if len(p.trail) == 0 {
		return Init
	}
	return p.trail[len(p.trail)-1]
}

// Run performs one search. Session-level failures return *Error and leave the
// run in Failed; the browser is closed on every path. A failed export is
// reported on the result's ExportErr and is not an error of Run.
func (p *Pipeline) Run(ctx context.Context, q models.Query) (*models.ScrapeResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	p.trail = p.trail[:0]
	p.lastState = time.Now()
	p.trail = append(p.trail, Init)

	result := &models.ScrapeResult{
		RunID:     uuid.NewString(),
		Query:     q,
		StartTime: p.lastState,
	}
	log := slog.With(slog.String("run_id", result.RunID), slog.String("route", q.BaseName()))
	defer func() {
		result.EndTime = time.Now()
	}()

	driver, err := p.launch(ctx)
	if err != nil {
		return nil, p.fail(log, fmt.Errorf("launch browser: %w", err))
	}
	session := browser.NewSession(driver, browser.OptionsFromConfig(p.cfg))
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("browser did not shut down cleanly", slog.Any("error", err))
		}
		p.transition(Closed)
	}()

	log.Info("opening search form", slog.String("url", p.cfg.BaseURL))
	if err := session.Open(ctx, p.cfg.BaseURL); err != nil {
		return nil, p.fail(log, err)
	}
	p.transition(Navigated)

	result.FillFailures = p.fillForm(ctx, session, q)
	if err := ctx.Err(); err != nil {
		return nil, p.fail(log, err)
	}
	p.transition(FieldsFilled)

	if err := session.Submit(ctx); err != nil {
		return nil, p.fail(log, err)
	}
	p.transition(Submitted)

	delay := p.resultsDelay.Next()
	log.Info("waiting for results", slog.Duration("delay", delay))
	if err := browser.Pause(ctx, delay); err != nil {
		return nil, p.fail(log, err)
	}

	page, err := p.extractor.LocateCards(ctx, session)
	if err != nil {
		return nil, p.fail(log, err)
	}
	p.transition(ResultsLoaded)
	result.SnapshotPath = p.snapshot(log, result.RunID, page.HTML)

	NewCardCollector(p.extractor, p.cfg.DedupeMaxSize, p.metrics).Collect(log, page.Cards, result)
	p.transition(Extracted)
	log.Info("extraction finished",
		slog.Int("records", len(result.Records)),
		slog.Int("cards", result.CardsSeen),
		slog.Int("skipped", result.CardsSkipped),
		slog.Int("duplicates", result.Duplicates),
	)

	path, textPath, err := p.exporter.Export(result.Bundle())
	if err != nil {
		log.Error("export failed", slog.Any("error", err))
		result.ExportErr = err
		p.metrics.incError(err)
		p.metrics.incRun("export_failed")
		return result, nil
	}
	result.ExportPath = path
	result.TextPath = textPath
	p.transition(Exported)
	p.metrics.incRun("exported")
	return result, nil
}

func (p *Pipeline) fillForm(ctx context.Context, session *browser.Session, q models.Query) int {
	fields := []struct{ id, value string }{
		{browser.OriginFieldID, q.Depart},
		{browser.DestinationFieldID, q.Arrive},
		{browser.DepartDateFieldID, q.DepartureDate},
	}
	if q.TripType == models.RoundTrip {
		fields = append(fields, struct{ id, value string }{browser.ReturnDateFieldID, q.ReturnDate})
	}

	filler := browser.NewFormFiller(session, p.fillPace)
	failures := 0
	for _, f := range fields {
		if !filler.Fill(ctx, f.id, f.value) {
			failures++
			p.metrics.incFillFailure()
		}
	}
	return failures
}

func (p *Pipeline) snapshot(log *slog.Logger, runID, html string) string {
	if p.cfg.SnapshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(p.cfg.SnapshotDir, 0o755); err != nil {
		log.Warn("snapshot directory unavailable", slog.Any("error", err))
		return ""
	}
	path := filepath.Join(p.cfg.SnapshotDir, runID+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		log.Warn("could not save results snapshot", slog.Any("error", err))
		return ""
	}
	log.Debug("results snapshot saved", slog.String("path", path))
	return path
}

func (p *Pipeline) transition(s State) {
	now := time.Now()
	p.metrics.observeState(s, now.Sub(p.lastState))
	p.lastState = now
	p.trail = append(p.trail, s)
}

func (p *Pipeline) fail(log *slog.Logger, err error) error {
	last := p.State()
	p.transition(Failed)
	p.metrics.incError(err)
	p.metrics.incRun("failed")
	log.Error("scrape failed", slog.String("state", last.String()), slog.Any("error", err))
	return &Error{State: last, Err: err}
}
