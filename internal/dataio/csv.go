package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a CSV table whose first row names the columns. Lines starting
// with '#' are comments.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}

		return nil, fmt.Errorf("read csv header: %w", err)
	}

	names := make([]string, len(header))
	columns := make(map[string][]float64, len(header))

	for j, h := range header {
		names[j] = strings.TrimSpace(h)
		if _, dup := columns[names[j]]; dup {
			return nil, fmt.Errorf("read csv header: duplicate column %q", names[j])
		}

		columns[names[j]] = nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		for j, cell := range record {
			v, err := ParseValue(cell)
			if err != nil {
				line, _ := reader.FieldPos(j)

				return nil, fmt.Errorf("csv line %d column %q: %w", line, names[j], err)
			}

			columns[names[j]] = append(columns[names[j]], v)
		}
	}

	return NewTable(names, columns)
}
