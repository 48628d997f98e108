package csvloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultDelimiter is the field separator used when none is configured.
const DefaultDelimiter = ','

// ParseFile reads the delimited file at path and converts its data rows to
// records. Any failure is reported as a *FileError.
func ParseFile(path string, delim rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := Parse(f, delim)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	return records, nil
}

// Parse reads delimited text from r. The first row is the header; its tokens
// are lower-cased and become the field names of every following row.
//
// Values are paired with header names by position. Values beyond the header
// width are dropped and missing trailing values leave their fields absent.
func Parse(r io.Reader, delim rune) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	header := make([]string, len(row))
	for i, name := range row {
		header[i] = strings.ToLower(name)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		records = append(records, newRecord(header, row))
	}

	return records, nil
}

func newRecord(header, row []string) Record {
	n := len(row)
	if n > len(header) {
		n = len(header)
	}

	rec := Record{fields: make([]Field, 0, n)}
	for i := 0; i < n; i++ {
		rec.Set(header[i], row[i])
	}
	return rec
}
