package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadRows returns every data row of a structured export verbatim, skipping
// exactly one header row.
func ReadRows(path string) ([][]string, error) {
	r, f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// ReadHeader returns the header row of a structured export.
func ReadHeader(path string) ([]string, error) {
	r, f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}

func openCSV(path string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	br := bufio.NewReader(f)
	if r, _, err := br.ReadRune(); err == nil && r != '\ufeff' {
		br.UnreadRune()
	}
	return csv.NewReader(br), f, nil
}
