package dataio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Input formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Read parses r in the given format.
func Read(r io.Reader, format string) (*Table, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FormatForPath infers the input format from a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// ReadFile reads path, or stdin for "-". An empty format is inferred from the
// extension; stdin defaults to CSV.
func ReadFile(path, format string) (*Table, error) {
	if path == "-" {
		if format == "" {
			format = FormatCSV
		}

		return Read(os.Stdin, format)
	}

	if format == "" {
		var err error

		format, err = FormatForPath(path)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	t, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}
