package browser

import "fmt"

// ErrNavigationTimeout indicates the search form never became visible.
type ErrNavigationTimeout struct {
	URL      string
	Attempts int
	Err      error
}

func (e ErrNavigationTimeout) Error() string {
	return fmt.Errorf("navigation_timeout: %s after %d attempt(s): %w", e.URL, e.Attempts, e.Err).Error()
}

func (e ErrNavigationTimeout) Unwrap() error {
	return e.Err
}

// ErrElementNotInteractable indicates an element never became clickable.
type ErrElementNotInteractable struct {
	Selector string
	Err      error
}

func (e ErrElementNotInteractable) Error() string {
	return fmt.Errorf("element_not_interactable: %s: %w", e.Selector, e.Err).Error()
}

func (e ErrElementNotInteractable) Unwrap() error {
	return e.Err
}
