package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aluiziolira/go-scrape-flights/browser"
	"github.com/aluiziolira/go-scrape-flights/browser/browsertest"
	"github.com/aluiziolira/go-scrape-flights/config"
	"github.com/aluiziolira/go-scrape-flights/export"
	"github.com/aluiziolira/go-scrape-flights/extract"
	"github.com/aluiziolira/go-scrape-flights/extract/extracttest"
	"github.com/aluiziolira/go-scrape-flights/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://booking.example.test/homePage.do"
	cfg.WaitTimeout = time.Second
	cfg.PageLoadTimeout = time.Second
	cfg.PaceMin, cfg.PaceMax = 0, 0
	cfg.ResultsDelayMin, cfg.ResultsDelayMax = 0, 0
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = time.Millisecond
	cfg.OutputDir = t.TempDir()
	return cfg
}

func fakeDriver(results string) *browsertest.Driver {
	return &browsertest.Driver{
		Form: browsertest.FormPage(browser.SearchButtonID,
			browser.OriginFieldID, browser.DestinationFieldID, browser.DepartDateFieldID, browser.ReturnDateFieldID),
		Results:        results,
		SubmitSelector: browser.IDSelector(browser.SearchButtonID),
	}
}

func launcherFor(d browser.Driver) browser.Launcher {
	return func(context.Context) (browser.Driver, error) {
		return d, nil
	}
}

func testQuery(t *testing.T) models.Query {
	t.Helper()
	q, err := models.NewQuery("JFK", "SFO", "05/10/2023", "05/15/2023")
	if err != nil {
		t.Fatalf("new query: %v", err)
	}
	return q
}

func card(number, depart string, fares ...string) extracttest.Card {
	return extracttest.Card{
		FlightNumbers: []string{number},
		Depart:        depart,
		Arrive:        "11:45 AM",
		Duration:      "5h 45m",
		Fares:         fares,
	}
}

func TestRunTwoCardsExported(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(
		card("AA 1", "6:00 AM", "$100", "$200", "$300"),
		card("AA 2", "8:00 AM", "$200", "$300"),
	))
	p := New(cfg, launcherFor(d))

	result, err := p.Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantFares := []models.Fares{
		{BasicEconomy: "$100", MainCabin: "$200", FirstClass: "$300"},
		{BasicEconomy: models.NotAvailable, MainCabin: "$200", FirstClass: "$300"},
	}
	if len(result.Records) != len(wantFares) {
		t.Fatalf("records = %d, want %d", len(result.Records), len(wantFares))
	}
	for i, rec := range result.Records {
		if rec.ID != i+1 {
			t.Fatalf("record %d id = %d", i, rec.ID)
		}
		if diff := cmp.Diff(wantFares[i], rec.Fares); diff != "" {
			t.Fatalf("record %d fares mismatch (-want +got):\n%s", i, diff)
		}
	}

	if want := filepath.Join(cfg.OutputDir, "JFKtoSFO.csv"); result.ExportPath != want {
		t.Fatalf("export path = %q, want %q", result.ExportPath, want)
	}
	rows, err := export.ReadRows(result.ExportPath)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	wantTrail := []State{Init, Navigated, FieldsFilled, Submitted, ResultsLoaded, Extracted, Exported, Closed}
	if diff := cmp.Diff(wantTrail, p.Trail()); diff != "" {
		t.Fatalf("trail mismatch (-want +got):\n%s", diff)
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}
	if result.RunID == "" {
		t.Fatalf("run id should be set")
	}
}

func TestRunFillsSearchForm(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))

	if _, err := New(cfg, launcherFor(d)).Run(context.Background(), testQuery(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]string{
		browser.OriginFieldID:      "JFK",
		browser.DestinationFieldID: "SFO",
		browser.DepartDateFieldID:  "05/10/2023",
		browser.ReturnDateFieldID:  "05/15/2023",
	}
	for id, value := range want {
		if got := d.Value(browser.IDSelector(id)); got != value {
			t.Fatalf("field %s = %q, want %q", id, got, value)
		}
	}
}

func TestRunOneWaySkipsReturnField(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))
	q, err := models.NewQuery("jfk", "sfo", "05/10/2023", "")
	if err != nil {
		t.Fatalf("new query: %v", err)
	}

	if _, err := New(cfg, launcherFor(d)).Run(context.Background(), q); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, call := range d.Calls() {
		if call == "SendKeys "+browser.IDSelector(browser.ReturnDateFieldID) {
			t.Fatalf("return date should not be typed for one-way trips")
		}
	}
}

func TestRunZeroCardsFails(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.EmptyPage())
	p := New(cfg, launcherFor(d))

	result, err := p.Run(context.Background(), testQuery(t))
	if result != nil {
		t.Fatalf("result should be nil on failure")
	}

	var pipeErr *Error
	if !errors.As(err, &pipeErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipeErr.State != Submitted {
		t.Fatalf("failed state = %s, want %s", pipeErr.State, Submitted)
	}
	var notFound extract.ErrResultsNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ErrResultsNotFound", err)
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}

	trail := p.Trail()
	if diff := cmp.Diff([]State{Failed, Closed}, trail[len(trail)-2:]); diff != "" {
		t.Fatalf("trail tail mismatch (-want +got):\n%s", diff)
	}
	if p.State() != Closed {
		t.Fatalf("state = %s, want closed", p.State())
	}
}

func TestRunSkipsMalformedCard(t *testing.T) {
	cfg := testConfig(t)
	broken := card("AA 2", "8:00 AM", "$100", "$200", "$300")
	broken.OmitDuration = true
	d := fakeDriver(extracttest.Page(
		card("AA 1", "6:00 AM", "$100", "$200", "$300"),
		broken,
		card("AA 3", "10:00 AM", "$100", "$200", "$300"),
	))
	p := New(cfg, launcherFor(d))

	result, err := p.Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	if result.CardsSeen != 3 || result.CardsSkipped != 1 {
		t.Fatalf("cards seen/skipped = %d/%d, want 3/1", result.CardsSeen, result.CardsSkipped)
	}
	if got := result.Records[1].FlightNumbers[0]; got != "AA 3" {
		t.Fatalf("second record flight = %q, want AA 3", got)
	}
	if got := result.Records[1].ID; got != 2 {
		t.Fatalf("second record id = %d, want 2", got)
	}
	if !containsState(p.Trail(), Exported) {
		t.Fatalf("trail %v should reach exported", p.Trail())
	}
}

func TestRunExportFailureIsNotARunFailure(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.OutputDir = filepath.Join(blocker, "out")
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))
	p := New(cfg, launcherFor(d))

	result, err := p.Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var ioErr export.ErrExportIO
	if !errors.As(result.ExportErr, &ioErr) {
		t.Fatalf("export error = %v, want ErrExportIO", result.ExportErr)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	if containsState(p.Trail(), Exported) || containsState(p.Trail(), Failed) {
		t.Fatalf("trail %v should stop at extracted", p.Trail())
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}
}

func TestRunKeepsCardWithEmptyTime(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(
		card("AA 1", "6:00 AM", "$100", "$200", "$300"),
		card("AA 2", "", "$100", "$200", "$300"),
	))

	result, err := New(cfg, launcherFor(d)).Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 2 || result.CardsSkipped != 0 {
		t.Fatalf("records/skipped = %d/%d, want 2/0", len(result.Records), result.CardsSkipped)
	}
	rec := result.Records[1]
	if rec.FlightNumbers[0] != "AA 2" || rec.DepartureTime != "" {
		t.Fatalf("second record = %+v, want AA 2 with empty departure time", rec)
	}
	if rec.ArrivalTime != "11:45 AM" {
		t.Fatalf("arrival time = %q, want 11:45 AM", rec.ArrivalTime)
	}
}

func TestRunDeduplicatesRepeatedCards(t *testing.T) {
	tests := []struct {
		name       string
		dedupeSize int
		records    int
		duplicates int
	}{
		{name: "default keeps every card", dedupeSize: config.DefaultConfig().DedupeMaxSize, records: 3, duplicates: 0},
		{name: "enabled", dedupeSize: 16, records: 2, duplicates: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.DedupeMaxSize = tt.dedupeSize
			d := fakeDriver(extracttest.Page(
				card("AA 1", "6:00 AM", "$100", "$200", "$300"),
				card("AA 1", "6:00 AM", "$100", "$200", "$300"),
				card("AA 1", "9:00 PM", "$100", "$200", "$300"),
			))

			result, err := New(cfg, launcherFor(d)).Run(context.Background(), testQuery(t))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(result.Records) != tt.records {
				t.Fatalf("records = %d, want %d", len(result.Records), tt.records)
			}
			if result.Duplicates != tt.duplicates {
				t.Fatalf("duplicates = %d, want %d", result.Duplicates, tt.duplicates)
			}
		})
	}
}

func TestRunNavigationTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRetries = 1
	d := fakeDriver(extracttest.EmptyPage())
	d.Form = `<html><body><p>Service unavailable</p></body></html>`
	p := New(cfg, launcherFor(d))

	_, err := p.Run(context.Background(), testQuery(t))

	var navErr browser.ErrNavigationTimeout
	if !errors.As(err, &navErr) {
		t.Fatalf("error = %v, want ErrNavigationTimeout", err)
	}
	var pipeErr *Error
	if !errors.As(err, &pipeErr) || pipeErr.State != Init {
		t.Fatalf("error = %v, want *Error at init", err)
	}
	if got := d.Navigations(); got != 2 {
		t.Fatalf("navigations = %d, want 2", got)
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}
}

func TestRunSubmitNotInteractable(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))
	d.Fail = map[string]error{"WaitEnabled": context.DeadlineExceeded}
	p := New(cfg, launcherFor(d))

	_, err := p.Run(context.Background(), testQuery(t))
	var target browser.ErrElementNotInteractable
	if !errors.As(err, &target) {
		t.Fatalf("error = %v, want ErrElementNotInteractable", err)
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}
}

func TestRunFillFailuresAreCounted(t *testing.T) {
	cfg := testConfig(t)
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))
	d.FailSelector = map[string]error{browser.IDSelector(browser.DepartDateFieldID): errors.New("stale element")}
	m := NewMetrics()

	result, err := New(cfg, launcherFor(d), WithMetrics(m)).Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FillFailures != 1 {
		t.Fatalf("fill failures = %d, want 1", result.FillFailures)
	}
	if got := testutil.ToFloat64(m.FillFailuresTotal); got != 1 {
		t.Fatalf("fill failure metric = %v, want 1", got)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	cfg := testConfig(t)
	launch := func(context.Context) (browser.Driver, error) {
		return nil, errors.New("chrome not found")
	}
	p := New(cfg, launch)

	_, err := p.Run(context.Background(), testQuery(t))
	var pipeErr *Error
	if !errors.As(err, &pipeErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if diff := cmp.Diff([]State{Init, Failed}, p.Trail()); diff != "" {
		t.Fatalf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResultsDelayMin, cfg.ResultsDelayMax = time.Hour, time.Hour
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))
	p := New(cfg, launcherFor(d))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx, testQuery(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	var pipeErr *Error
	if !errors.As(err, &pipeErr) || pipeErr.State != Submitted {
		t.Fatalf("error = %v, want *Error after submit", err)
	}
	if got := d.Quits(); got != 1 {
		t.Fatalf("quits = %d, want 1", got)
	}
}

func TestRunInvalidQuery(t *testing.T) {
	launched := false
	launch := func(context.Context) (browser.Driver, error) {
		launched = true
		return nil, errors.New("unreachable")
	}

	_, err := New(testConfig(t), launch).Run(context.Background(), models.Query{Depart: "JFK"})
	if err == nil {
		t.Fatalf("expected error for invalid query")
	}
	if launched {
		t.Fatalf("browser should not start for an invalid query")
	}
}

func TestRunWritesSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300")))

	result, err := New(cfg, launcherFor(d)).Run(context.Background(), testQuery(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := filepath.Join(cfg.SnapshotDir, result.RunID+".html"); result.SnapshotPath != want {
		t.Fatalf("snapshot path = %q, want %q", result.SnapshotPath, want)
	}
	if info, err := os.Stat(result.SnapshotPath); err != nil || info.Size() == 0 {
		t.Fatalf("snapshot missing or empty")
	}
}

func TestRunMetrics(t *testing.T) {
	cfg := testConfig(t)
	broken := card("AA 2", "8:00 AM", "$100")
	broken.OmitFares = true
	d := fakeDriver(extracttest.Page(card("AA 1", "6:00 AM", "$100", "$200", "$300"), broken))
	m := NewMetrics()

	if _, err := New(cfg, launcherFor(d), WithMetrics(m)).Run(context.Background(), testQuery(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("exported")); got != 1 {
		t.Fatalf("exported runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CardsTotal.WithLabelValues("extracted")); got != 1 {
		t.Fatalf("extracted cards = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CardsTotal.WithLabelValues("skipped")); got != 1 {
		t.Fatalf("skipped cards = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("card_extraction")); got != 1 {
		t.Fatalf("card extraction errors = %v, want 1", got)
	}
}

func TestErrorTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "navigation", err: browser.ErrNavigationTimeout{URL: "u", Err: context.DeadlineExceeded}, expected: "navigation_timeout"},
		{name: "interactable", err: browser.ErrElementNotInteractable{Selector: "s", Err: context.DeadlineExceeded}, expected: "element_not_interactable"},
		{name: "results", err: extract.ErrResultsNotFound{}, expected: "results_not_found"},
		{name: "card", err: extract.ErrCardExtraction{Index: 1, Err: extract.ErrFieldNotFound{Field: "duration"}}, expected: "card_extraction"},
		{name: "export", err: export.ErrExportIO{Path: "p", Err: os.ErrPermission}, expected: "export_io"},
		{name: "canceled", err: context.Canceled, expected: "canceled"},
		{name: "driver", err: errors.New("websocket closed"), expected: "driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(tt.err); got != tt.expected {
				t.Fatalf("errorTypeLabel(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if got := ResultsLoaded.String(); got != "results_loaded" {
		t.Fatalf("ResultsLoaded = %q", got)
	}
	if got := State(42).String(); got != "unknown" {
		t.Fatalf("State(42) = %q", got)
	}
}

func containsState(trail []State, s State) bool {
	for _, got := range trail {
		if got == s {
			return true
		}
	}
	return false
}
