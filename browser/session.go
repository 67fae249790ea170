package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aluiziolira/go-scrape-flights/config"
)

// SessionOptions controls waits and navigation retries.
type SessionOptions struct {
	PageLoadTimeout time.Duration
	WaitTimeout     time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration

	// ReadySelector must be visible before the form is considered loaded.
	ReadySelector string
	// TriggerSelector is the search button; it doubles as the scroll anchor.
	TriggerSelector string
}

// OptionsFromConfig derives session options from cfg.
func OptionsFromConfig(cfg *config.Config) SessionOptions {
	return SessionOptions{
		PageLoadTimeout: cfg.PageLoadTimeout,
		WaitTimeout:     cfg.WaitTimeout,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		RetryBackoffMax: cfg.RetryBackoffMax,
		ReadySelector:   IDSelector(SearchButtonID),
		TriggerSelector: IDSelector(SearchButtonID),
	}
}

// Session wraps one browser for the duration of a single run.
// It is not safe for concurrent use.
type Session struct {
	driver Driver
	opts   SessionOptions

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// NewSession takes ownership of driver.
func NewSession(driver Driver, opts SessionOptions) *Session {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 30 * time.Second
	}
	return &Session{driver: driver, opts: opts}
}

func (s *Session) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.WaitTimeout)
}

// Open navigates to url and waits for the search form. Failed attempts are
// retried with exponential backoff; the last failure is returned as
// ErrNavigationTimeout.
func (s *Session) Open(ctx context.Context, url string) error {
	attempts := 0
	op := func() error {
		attempts++
		err := s.navigate(ctx, url)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		slog.Warn("navigation attempt failed",
			slog.String("url", url),
			slog.Int("attempt", attempts),
			slog.Any("error", err),
		)
		return err
	}

	b := backoff.NewExponentialBackOff()
	if s.opts.RetryBackoff > 0 {
		b.InitialInterval = s.opts.RetryBackoff
	}
	if s.opts.RetryBackoffMax > 0 {
		b.MaxInterval = s.opts.RetryBackoffMax
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("open %s: %w", url, ctx.Err())
		}
		return ErrNavigationTimeout{URL: url, Attempts: attempts, Err: err}
	}
	return nil
}

func (s *Session) navigate(ctx context.Context, url string) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.opts.PageLoadTimeout)
	defer cancel()
	if err := s.driver.Navigate(loadCtx, url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	waitCtx, cancelWait := s.bounded(ctx)
	defer cancelWait()
	if err := s.driver.WaitVisible(waitCtx, s.opts.ReadySelector); err != nil {
		return fmt.Errorf("wait for %s: %w", s.opts.ReadySelector, err)
	}
	return nil
}

// Submit waits for the search button to become clickable and clicks it.
func (s *Session) Submit(ctx context.Context) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	sel := s.opts.TriggerSelector
	if err := s.driver.WaitVisible(ctx, sel); err != nil {
		return ErrElementNotInteractable{Selector: sel, Err: err}
	}
	if err := s.driver.WaitEnabled(ctx, sel); err != nil {
		return ErrElementNotInteractable{Selector: sel, Err: err}
	}
	if err := s.driver.Click(ctx, sel); err != nil {
		return ErrElementNotInteractable{Selector: sel, Err: err}
	}
	return nil
}

// WaitPresent blocks until every selector matches a node. All waits share
// one WaitTimeout bound.
func (s *Session) WaitPresent(ctx context.Context, selectors ...string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	for _, sel := range selectors {
		if err := s.driver.WaitPresent(ctx, sel); err != nil {
			return fmt.Errorf("wait for %s: %w", sel, err)
		}
	}
	return nil
}

// HTML returns the current document's markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.driver.OuterHTML(ctx)
}

// Close quits the browser. Only the first call reaches the driver.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.driver.Quit()
		s.closed = true
	})
	return s.closeErr
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	return s.closed
}
