package fileutil

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// DelimitedReader provides a helper to read delimiter-separated files,
// e.g. comma-separated ledger exports or semicolon-separated bank statements
type DelimitedReader struct {
	FilePath string
	Comma    rune
}

// NewDelimitedReader returns a DelimitedReader for the specified file
func NewDelimitedReader(fp string, comma rune) *DelimitedReader {
	if comma == 0 {
		comma = ','
	}

	return &DelimitedReader{
		FilePath: fp,
		Comma:    comma,
	}
}

// ReadHeader reads ONLY the header row of the specified file
func (r *DelimitedReader) ReadHeader() ([]string, error) {
	f, err := os.Open(r.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := NewRowReader(f, r.Comma)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	return header, nil
}

// ReadAndProcessByRow reads and processes a file row by row, allows for streaming large file(s)
func (r *DelimitedReader) ReadAndProcessByRow(processorFn func([]string) error) error {
	f, err := os.Open(r.FilePath)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := NewRowReader(f, r.Comma)

	// Skip header
	_, err = reader.Read()
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}

	// read and process row by row
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break // end of file, stop
		}
		if err != nil {
			return fmt.Errorf("reading row: %w", err)
		}

		if err = processorFn(row); err != nil {
			return err
		}
	}

	return nil
}

// NewRowReader wraps an io.Reader in a csv.Reader configured for bank and
// ledger exports: a UTF-8 BOM is stripped, rows may have a varying number of
// fields and quoting is not enforced
func NewRowReader(rd io.Reader, comma rune) *csv.Reader {
	br := bufio.NewReader(rd)

	// Strip the UTF-8 byte order mark some bank exports start with
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	return reader
}
