package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrSnapshotFetch indicates a saved results page could not be loaded.
type ErrSnapshotFetch struct {
	URL    string
	Status int
	// Kind is one of timeout, connection, not_found, http_status or other.
	Kind string
	Err  error
}

func (e ErrSnapshotFetch) Error() string {
	if e.Status != 0 {
		return fmt.Errorf("snapshot_fetch %s: %s (status %d): %w", e.Kind, e.URL, e.Status, e.Err).Error()
	}
	return fmt.Errorf("snapshot_fetch %s: %s: %w", e.Kind, e.URL, e.Err).Error()
}

func (e ErrSnapshotFetch) Unwrap() error {
	return e.Err
}

func classifyError(url string, err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("http status %d", statusCode)
	}

	out := ErrSnapshotFetch{URL: url, Status: statusCode, Kind: "other", Err: err}

	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		out.Kind = "timeout"
	case errors.As(err, &opErr):
		out.Kind = "connection"
	case statusCode == http.StatusNotFound:
		out.Kind = "not_found"
	case statusCode >= http.StatusBadRequest:
		out.Kind = "http_status"
	}
	return out
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var fetch ErrSnapshotFetch
	if errors.As(err, &fetch) {
		return fetch.Kind
	}
	return "other"
}
