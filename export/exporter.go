package export

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/aluiziolira/go-scrape-flights/config"
	"github.com/aluiziolira/go-scrape-flights/models"
)

// Output formats accepted by Exporter.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatDual = "dual"
)

// Exporter writes bundles under one output directory.
type Exporter struct {
	dir    string
	format string
	text   bool
}

// NewExporter returns an exporter writing format files into dir. When text is
// set, Export also writes the plain-text summary.
func NewExporter(dir, format string, text bool) *Exporter {
	if format == "" {
		format = FormatCSV
	}
	return &Exporter{dir: dir, format: format, text: text}
}

// FromConfig builds an exporter from cfg's output settings.
func FromConfig(cfg *config.Config) *Exporter {
	return NewExporter(cfg.OutputDir, cfg.OutputFormat, cfg.TextExport)
}

// Export writes the structured file and, if enabled, the text summary.
func (e *Exporter) Export(bundle *models.ExportBundle) (path, textPath string, err error) {
	path, err = e.ExportStructured(bundle)
	if err != nil {
		return "", "", err
	}
	if e.text {
		textPath = e.ExportText(bundle)
	}
	return path, textPath, nil
}

// ExportStructured writes one row per record to <dir>/<DEP>to<ARR>.csv (or
// .jsonl for the json format) and returns the primary file's path.
func (e *Exporter) ExportStructured(bundle *models.ExportBundle) (string, error) {
	base := filepath.Join(e.dir, bundle.Query.BaseName())
	csvPath, jsonPath := base+".csv", base+".jsonl"

	var (
		writer  RecordWriter
		primary string
		err     error
	)
	switch e.format {
	case FormatCSV:
		primary = csvPath
		writer, err = NewCSVWriter(csvPath)
	case FormatJSON:
		primary = jsonPath
		writer, err = NewJSONWriter(jsonPath)
	case FormatDual:
		primary = csvPath
		writer, err = NewDualWriter(csvPath, jsonPath)
	default:
		return "", fmt.Errorf("unknown output format %q", e.format)
	}
	if err != nil {
		return "", ErrExportIO{Path: primary, Err: err}
	}

	if err := writer.Write(bundle.Records); err != nil {
		writer.Close()
		return "", ErrExportIO{Path: primary, Err: err}
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return "", ErrExportIO{Path: primary, Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", ErrExportIO{Path: primary, Err: err}
	}

	attrs := []any{
		slog.String("path", primary),
		slog.Int("records", len(bundle.Records)),
	}
	if info, err := os.Stat(primary); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	slog.Info("export written", attrs...)
	return primary, nil
}

// ExportText writes the human-readable summary to <dir>/<DEP>to<ARR>.txt.
// Failures are logged and reported as an empty path.
func (e *Exporter) ExportText(bundle *models.ExportBundle) string {
	path := filepath.Join(e.dir, bundle.Query.BaseName()+".txt")
	if err := writeText(path, bundle); err != nil {
		slog.Error("text export failed", slog.String("path", path), slog.Any("error", err))
		return ""
	}
	return path
}

func writeText(path string, bundle *models.ExportBundle) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	q := bundle.Query
	fmt.Fprintf(w, "This is flights info from %s (%s) to %s(%s):\n", q.Depart, q.DepartureDate, q.Arrive, q.ReturnDate)
	for _, rec := range bundle.Records {
		fmt.Fprintf(w, "Departure Time: %s | Arrival Time: %s | Main Cabin Price: %s\n",
			rec.DepartureTime, rec.ArrivalTime, rec.Fares.MainCabin)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
