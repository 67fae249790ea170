package extract

import (
	"errors"
	"fmt"
)

// ErrResultsNotFound indicates the results page never showed any flight cards.
type ErrResultsNotFound struct {
	Err error
}

func (e ErrResultsNotFound) Error() string {
	if e.Err == nil {
		return "results_not_found"
	}
	return fmt.Errorf("results_not_found: %w", e.Err).Error()
}

func (e ErrResultsNotFound) Unwrap() error {
	return e.Err
}

// ErrFieldNotFound indicates a required sub-field was absent from a node.
// An empty field is not an error; only a missing one is.
type ErrFieldNotFound struct {
	Field string
}

func (e ErrFieldNotFound) Error() string {
	return fmt.Sprintf("field_not_found: %s", e.Field)
}

// ErrCardExtraction wraps a failure confined to one flight card.
type ErrCardExtraction struct {
	Index int
	Err   error
}

func (e ErrCardExtraction) Error() string {
	return fmt.Errorf("card %d: %w", e.Index, e.Err).Error()
}

func (e ErrCardExtraction) Unwrap() error {
	return e.Err
}

// IsFieldNotFound reports whether err carries an ErrFieldNotFound.
func IsFieldNotFound(err error) bool {
	var target ErrFieldNotFound
	return errors.As(err, &target)
}
