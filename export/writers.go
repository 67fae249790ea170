// Package export writes scraped flight records to disk.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-flights/models"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// Header is the structured export's single header row.
var Header = []string{"index", "flight_numbers", "departure_time", "arrival_time", "duration", "main_cabin_price"}

// RecordWriter defines the interface for record output.
type RecordWriter interface {
	Write(records []models.FlightRecord) error
	Close() error
	Validate() error
}

// CSVWriter writes records as BOM-prefixed CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates filename, writes the BOM and the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}
	if _, err := f.WriteString(utf8BOM); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv bom: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Row renders rec in Header order.
func Row(rec models.FlightRecord) []string {
	return []string{
		strconv.Itoa(rec.ID),
		strings.Join(rec.FlightNumbers, ", "),
		rec.DepartureTime,
		rec.ArrivalTime,
		rec.Duration,
		rec.Fares.MainCabin,
	}
}

// Write appends one row per record.
func (cw *CSVWriter) Write(records []models.FlightRecord) error {
	for _, rec := range records {
		if err := cw.writer.Write(Row(rec)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= int64(len(utf8BOM)) {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records with all fare tiers.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	written int
}

// NewJSONWriter creates filename.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []models.FlightRecord) error {
	for _, rec := range records {
		if err := jw.encoder.Encode(rec); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
		jw.written++
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures every written record reached the file. A run with no
// records leaves a valid empty JSONL file.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if jw.written > 0 && info.Size() == 0 {
		return fmt.Errorf("json file is empty after %d records", jw.written)
	}
	return nil
}

// DualWriter writes CSV and JSONL side by side.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
}

// NewDualWriter opens both outputs.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}
	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

func (dw *DualWriter) Write(records []models.FlightRecord) error {
	if err := dw.csvWriter.Write(records); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

func (dw *DualWriter) Close() error {
	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close: %w", err))
	}
	return errors.Join(errs...)
}

func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("csv validate: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("json validate: %w", err))
	}
	return errors.Join(errs...)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
