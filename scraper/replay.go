// Package scraper re-runs extraction over saved results pages, so selector
// changes can be checked without driving a browser.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-flights/config"
	"github.com/aluiziolira/go-scrape-flights/extract"
	"github.com/aluiziolira/go-scrape-flights/models"
	"github.com/aluiziolira/go-scrape-flights/pipeline"
)

// Replayer loads snapshots over file, http or https and extracts their cards.
type Replayer struct {
	cfg       *config.Config
	collector *colly.Collector
	extractor *extract.Extractor

	Metrics     *Metrics
	cardMetrics *pipeline.Metrics
}

// NewReplayer builds a replayer configured from cfg. Card and fetch metrics
// are recorded on m when it is non-nil.
func NewReplayer(cfg *config.Config, m *pipeline.Metrics) *Replayer {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.PageLoadTimeout)
	collector.IgnoreRobotsTxt = true

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.PageLoadTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	collector.WithTransport(transport)

	r := &Replayer{
		cfg:         cfg,
		collector:   collector,
		extractor:   extract.New(extract.DefaultSelectors()),
		cardMetrics: m,
	}
	if m != nil {
		r.Metrics = NewMetrics(m.Registry)
	}
	return r
}

// SnapshotURL turns a local path into a file URL; URLs pass through.
func SnapshotURL(location string) (string, error) {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve snapshot path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Replay extracts every card of the snapshot at location for q. Card-level
// problems are skipped as in a live run; a page without cards returns
// extract.ErrResultsNotFound.
func (r *Replayer) Replay(ctx context.Context, location string, q models.Query) (*models.ScrapeResult, error) {
	target, err := SnapshotURL(location)
	if err != nil {
		return nil, err
	}

	result := &models.ScrapeResult{
		RunID:        uuid.NewString(),
		Query:        q,
		StartTime:    time.Now(),
		SnapshotPath: target,
	}
	log := slog.With(slog.String("run_id", result.RunID), slog.String("snapshot", target))

	var (
		page    *extract.Page
		pageErr error
		status  int
	)

	c := r.collector.Clone()
	c.OnRequest(func(req *colly.Request) {
		if ctx.Err() != nil {
			req.Abort()
			return
		}
		req.Ctx.Put("start", time.Now())
	})
	c.OnResponse(func(resp *colly.Response) {
		status = resp.StatusCode
		if start, ok := resp.Request.Ctx.GetAny("start").(time.Time); ok {
			r.Metrics.ObserveDuration(time.Since(start))
		}
	})
	c.OnError(func(resp *colly.Response, _ error) {
		if resp != nil {
			status = resp.StatusCode
		}
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		cards, err := r.extractor.Cards(e.DOM)
		if err != nil {
			pageErr = err
			return
		}
		page = &extract.Page{HTML: string(e.Response.Body), Root: e.DOM, Cards: cards}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Visit(target); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		fetchErr := classifyError(target, err, status)
		r.Metrics.IncFetch("error")
		r.Metrics.IncError(errorTypeLabel(fetchErr))
		log.Error("snapshot fetch failed", slog.Any("error", fetchErr))
		return nil, fetchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Metrics.IncFetch("ok")

	if pageErr != nil {
		return nil, pageErr
	}
	if page == nil {
		return nil, extract.ErrResultsNotFound{Err: fmt.Errorf("no html document at %s", target)}
	}

	collector := pipeline.NewCardCollector(r.extractor, r.cfg.DedupeMaxSize, r.cardMetrics)
	collector.Collect(log, page.Cards, result)
	result.EndTime = time.Now()

	log.Info("snapshot replayed",
		slog.Int("records", len(result.Records)),
		slog.Int("cards", result.CardsSeen),
		slog.Int("skipped", result.CardsSkipped),
	)
	return result, nil
}
