package relstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV serializes a Result as CSV with a header row, per the canonical
// form in §4.1.1 ("rendered as CSV with header row, no row-index column").
func (r *Result) RenderCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(r.Columns); err != nil {
		return nil, fmt.Errorf("write CSV header: %w", err)
	}

	for _, row := range r.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellToString(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush CSV writer: %w", err)
	}
	return buf.Bytes(), nil
}

func cellToString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
