// Package export renders execution results for download as JSON, CSV or
// plain text.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Format is a supported download format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatText:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format '%s'", s)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Extension returns the file extension used in attachment names
func (f Format) Extension() string {
	return string(f)
}

// Encode writes the result in the requested format
func (f Format) Encode(w io.Writer, result any) error {
	switch f {
	case FormatCSV:
		return encodeCSV(w, result)
	default:
		// txt downloads carry the same pretty-printed JSON body as json,
		// only the content type differs
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

// encodeCSV flattens an array of documents into rows. The header is the
// sorted key set of the first document; nested values are JSON-encoded
// into their cell.
func encodeCSV(w io.Writer, result any) error {
	items, ok := result.([]any)
	if !ok {
		items = []any{result}
	}
	if len(items) == 0 {
		return nil
	}

	first, ok := items[0].(map[string]any)
	if !ok {
		// scalar rows: one value per line
		cw := csv.NewWriter(w)
		for _, item := range items {
			if err := cw.Write([]string{cellValue(item)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return err
	}
	for _, item := range items {
		doc, ok := item.(map[string]any)
		if !ok {
			doc = map[string]any{}
		}
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = cellValue(doc[k])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
