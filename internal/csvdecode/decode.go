// Package csvdecode reads CSV files into in-memory tables, trying a fixed
// ordered list of text encodings until one succeeds. This is the tabular
// decoder collaborator whose contract is fixed externally (§6): callers
// never see a partially decoded file, only success or a final failure.
package csvdecode

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encodings is the fixed fallback ladder from §4.3.2/§6, tried in order.
var Encodings = []string{"utf-8", "latin-1", "windows-1252", "iso-8859-1", "cp1252"}

var codecs = map[string]encoding.Encoding{
	"utf-8":        nil, // nil means "no transcoding; the bytes must already be valid UTF-8"
	"latin-1":      charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
}

// Table is the decoded result: a header row plus data rows, all as raw
// strings. Typing happens downstream in the typist package.
type Table struct {
	Header []string
	Rows   [][]string
}

// DecodeFile reads path trying each encoding in Encodings, in order. On a
// decode failure under one encoding it tries the next; if every encoding
// fails, it returns the last error (§4.3.2, §7 decode-failure).
func DecodeFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var lastErr error
	for _, name := range Encodings {
		table, err := decodeWith(raw, name)
		if err == nil {
			return table, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("decode %s: no encoding in %v succeeded: %w", path, Encodings, lastErr)
}

func decodeWith(raw []byte, encName string) (*Table, error) {
	codec := codecs[encName]

	var text []byte
	if codec == nil {
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%s: invalid byte sequence", encName)
		}
		text = raw
	} else {
		decoded, err := codec.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", encName, err)
		}
		text = decoded
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("%s: %w", encName, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", encName, err)
		}
		rows = append(rows, row)
	}

	return &Table{Header: header, Rows: rows}, nil
}
