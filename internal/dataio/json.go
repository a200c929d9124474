package dataio

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/mapx"
)

//go:embed schema/columns.schema.json
var columnsSchema []byte

// ColumnsSchema returns the JSON schema column documents must satisfy.
func ColumnsSchema() []byte {
	return slices.Clone(columnsSchema)
}

// ValidationResult lists schema violations of a column document.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
	// Columns and Rows describe the document when it is valid.
	Columns int
	Rows    int
}

// FieldError is one schema violation.
type FieldError struct {
	Field       string
	Description string
}

// Validate checks a JSON column document against the schema without
// building a table. Malformed JSON is an error; schema violations are not.
func Validate(r io.Reader) (*ValidationResult, error) {
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	return validateDocument(doc)
}

// ReadJSON reads a document of the form {"columns": {"name": [values]}}.
// null, "NaN" and the infinity spellings are accepted for non-finite values.
func ReadJSON(r io.Reader) (*Table, error) {
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	res, err := validateDocument(doc)
	if err != nil {
		return nil, err
	}

	if !res.Valid {
		msgs := make([]string, len(res.Errors))
		for i, fe := range res.Errors {
			msgs[i] = fe.Field + ": " + fe.Description
		}

		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(msgs, "; "))
	}

	return tableFromDocument(doc)
}

func decodeDocument(r io.Reader) (any, error) {
	var doc any

	dec := json.NewDecoder(r)
	dec.UseNumber()

	err := dec.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	return doc, nil
}

func validateDocument(doc any) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(columnsSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}

	for _, verr := range result.Errors() {
		out.Errors = append(out.Errors, FieldError{Field: verr.Field(), Description: verr.Description()})
	}

	if out.Valid {
		cols, _ := doc.(map[string]any)["columns"].(map[string]any)
		out.Columns = len(cols)

		for _, col := range cols {
			arr, _ := col.([]any)
			out.Rows = max(out.Rows, len(arr))
		}
	}

	return out, nil
}

func tableFromDocument(doc any) (*Table, error) {
	root, _ := doc.(map[string]any)
	raw, _ := root["columns"].(map[string]any)

	// JSON objects are unordered; sort for a stable column order.
	names := mapx.SortedKeys(raw)

	columns := make(map[string][]float64, len(raw))

	for _, name := range names {
		values, _ := raw[name].([]any)
		col := make([]float64, len(values))

		for i, v := range values {
			f, err := jsonValue(v)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}

			col[i] = f
		}

		columns[name] = col
	}

	t, err := NewTable(names, columns)
	if err != nil {
		return nil, err
	}

	if meta, ok := root["meta"].(map[string]any); ok {
		t.Meta = make(map[string]string, len(meta))
		for k, v := range meta {
			t.Meta[k], _ = v.(string)
		}
	}

	return t, nil
}

func jsonValue(v any) (float64, error) {
	switch tv := v.(type) {
	case nil:
		return math.NaN(), nil
	case json.Number:
		f, err := tv.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidValue, tv)
		}

		return f, nil
	case string:
		return ParseValue(tv)
	}

	return 0, fmt.Errorf("%w: %v", ErrInvalidValue, v)
}
