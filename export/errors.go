package export

import "fmt"

// ErrExportIO indicates the filesystem rejected an export.
type ErrExportIO struct {
	Path string
	Err  error
}

func (e ErrExportIO) Error() string {
	return fmt.Errorf("export_io: %s: %w", e.Path, e.Err).Error()
}

func (e ErrExportIO) Unwrap() error {
	return e.Err
}
