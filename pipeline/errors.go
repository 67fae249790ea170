package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-flights/browser"
	"github.com/aluiziolira/go-scrape-flights/export"
	"github.com/aluiziolira/go-scrape-flights/extract"
)

// Error reports a run that ended in Failed. State is the last state reached
// before the failure.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Errorf("pipeline failed after %s: %w", e.State, e.Err).Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var navigation browser.ErrNavigationTimeout
	if errors.As(err, &navigation) {
		return "navigation_timeout"
	}
	var interactable browser.ErrElementNotInteractable
	if errors.As(err, &interactable) {
		return "element_not_interactable"
	}
	var results extract.ErrResultsNotFound
	if errors.As(err, &results) {
		return "results_not_found"
	}
	var card extract.ErrCardExtraction
	if errors.As(err, &card) {
		return "card_extraction"
	}
	var exportIO export.ErrExportIO
	if errors.As(err, &exportIO) {
		return "export_io"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "driver"
}
