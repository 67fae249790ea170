// Package browser owns the automated Chrome instance used for one search.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"github.com/aluiziolira/go-scrape-flights/config"
)

// Driver is the browser surface the session, form filler and extractor use.
// All selectors are CSS queries. Implementations return
// context.DeadlineExceeded when a bounded wait expires.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	WaitPresent(ctx context.Context, selector string) error
	WaitEnabled(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, value string) error
	OuterHTML(ctx context.Context) (string, error)
	Quit() error
}

// Launcher starts a new browser for one pipeline run.
type Launcher func(ctx context.Context) (Driver, error)

type chromeDriver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Launch starts Chrome with the configured flags and opens one tab.
func Launch(ctx context.Context, cfg *config.Config) (Driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	// The browser lives until Quit, not until the caller's context ends.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...), slog.String("source", "chromedp"))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...), slog.String("source", "chromedp"), slog.Bool("error", true))
		}),
	)

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromeDriver{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// NewLauncher binds cfg to Launch.
func NewLauncher(cfg *config.Config) Launcher {
	return func(ctx context.Context) (Driver, error) {
		return Launch(ctx, cfg)
	}
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *chromeDriver) WaitVisible(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (d *chromeDriver) WaitPresent(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (d *chromeDriver) WaitEnabled(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitEnabled(selector, chromedp.ByQuery))
}

func (d *chromeDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *chromeDriver) ScrollIntoView(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (d *chromeDriver) Clear(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Clear(selector, chromedp.ByQuery))
}

func (d *chromeDriver) SendKeys(ctx context.Context, selector, value string) error {
	return d.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (d *chromeDriver) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Quit closes the tab and browser, then releases the allocator.
func (d *chromeDriver) Quit() error {
	err := chromedp.Cancel(d.ctx)
	d.cancelTab()
	d.cancelAlloc()
	if err != nil {
		return fmt.Errorf("quit browser: %w", err)
	}
	return nil
}
