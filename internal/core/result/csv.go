package result

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// emptyRecord is a single empty field. csv.Writer emits it as a blank line,
// which csv.Reader skips.
const emptyRecord = "\"\"\n"

// WriteCSV writes the header row followed by every row, without an index column.
func WriteCSV(w io.Writer, s *Set) error {
	cw := csv.NewWriter(w)

	if err := writeRecord(w, cw, s.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range s.Strings() {
		if err := writeRecord(w, cw, row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeRecord(w io.Writer, cw *csv.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return cw.Write(record)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, emptyRecord)
	return err
}

// ReadCSV loads a file written by WriteCSV. Every cell comes back as a string.
func ReadCSV(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	set := &Set{Columns: header, Rows: [][]interface{}{}}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(set.Rows)+1, err)
		}

		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = v
		}
		set.Rows = append(set.Rows, row)
	}

	return set, nil
}
