package browser

import (
	"context"
	"fmt"
	"log/slog"
)

// FormFiller types values into the search form with human-like pacing.
type FormFiller struct {
	session *Session
	pace    Pacer
}

// NewFormFiller returns a filler that drives session's browser.
func NewFormFiller(session *Session, pace Pacer) *FormFiller {
	return &FormFiller{session: session, pace: pace}
}

// Fill locates the field by id, scrolls the search button into view, clears
// the field, focuses it and types value, then pauses. Failures are logged and
// reported as false; they never abort the run.
func (f *FormFiller) Fill(ctx context.Context, fieldID, value string) bool {
	if err := f.fill(ctx, fieldID, value); err != nil {
		slog.Error("fill form field",
			slog.String("field", fieldID),
			slog.Any("error", err),
		)
		return false
	}
	if err := f.pace.Pause(ctx); err != nil {
		slog.Debug("pacing interrupted", slog.String("field", fieldID), slog.Any("error", err))
	}
	return true
}

func (f *FormFiller) fill(ctx context.Context, fieldID, value string) error {
	ctx, cancel := f.session.bounded(ctx)
	defer cancel()

	d := f.session.driver
	sel := IDSelector(fieldID)
	if err := d.WaitPresent(ctx, sel); err != nil {
		return fmt.Errorf("locate field: %w", err)
	}
	if err := d.ScrollIntoView(ctx, f.session.opts.TriggerSelector); err != nil {
		return fmt.Errorf("scroll to search button: %w", err)
	}
	if err := d.Clear(ctx, sel); err != nil {
		return fmt.Errorf("clear field: %w", err)
	}
	if err := d.Click(ctx, sel); err != nil {
		return fmt.Errorf("focus field: %w", err)
	}
	if err := d.SendKeys(ctx, sel, value); err != nil {
		return fmt.Errorf("type value: %w", err)
	}
	return nil
}
