package typist

import (
	"strconv"
	"strings"
	"time"
)

// boolLexicon maps every recognized lower-cased boolean token to its value.
var boolLexicon = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"1": true, "0": false,
	"t": true, "f": false,
	"y": true, "n": false,
}

// dateLayouts are tried in order; the first layout under which every
// non-null cell parses wins. Mirrors the strftime format list in §4.4,
// translated to Go's reference-time layout syntax. ".999999" parses a
// variable-width fractional-second suffix, matching Python's "%f".
var dateLayouts = []string{
	"01/02/2006",
	"01-02-2006",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04:05.999999",
	"01-02-2006 15:04:05",
	"01-02-2006 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

// infer runs the fixed-order cascade (bool -> numeric -> datetime -> string)
// over a raw column and returns the first strategy's successful result.
// A column with zero non-null values falls through every strategy above
// string and is classified string, per §9d.
func infer(raw *Column) *Column {
	cells := rawCells(raw)
	nonNull := make([]string, 0, len(cells))
	for i, v := range raw.Strings {
		if v != nil {
			nonNull = append(nonNull, cells[i])
		}
	}

	if col, ok := inferBool(raw.Name, raw.Strings, nonNull); ok {
		return col
	}
	if col, ok := inferNumeric(raw.Name, raw.Strings, nonNull); ok {
		return col
	}
	if col, ok := inferDatetime(raw.Name, raw.Strings, nonNull); ok {
		return col
	}
	return &Column{Name: raw.Name, Type: TypeString, Strings: raw.Strings}
}

// inferBool succeeds when there are exactly two distinct non-null values,
// both found (case-insensitively) in boolLexicon. Null cells map to false.
func inferBool(name string, cells []*string, nonNull []string) (*Column, bool) {
	distinct := map[string]bool{}
	for _, v := range nonNull {
		distinct[strings.ToLower(strings.TrimSpace(v))] = true
	}
	if len(distinct) != 2 {
		return nil, false
	}
	for v := range distinct {
		if _, ok := boolLexicon[v]; !ok {
			return nil, false
		}
	}

	out := make([]*bool, len(cells))
	for i, c := range cells {
		if c == nil {
			f := false
			out[i] = &f
			continue
		}
		v := boolLexicon[strings.ToLower(strings.TrimSpace(*c))]
		out[i] = &v
	}
	return &Column{Name: name, Type: TypeBool, Bools: out}, true
}

// inferNumeric succeeds when every non-null cell parses as a number. Whole-
// valued cells across the board yield int; otherwise float.
func inferNumeric(name string, cells []*string, nonNull []string) (*Column, bool) {
	if len(nonNull) == 0 {
		return nil, false
	}
	allWhole := true
	for _, v := range nonNull {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		if f != float64(int64(f)) {
			allWhole = false
		}
	}

	if allWhole {
		out := make([]*int64, len(cells))
		for i, c := range cells {
			if c == nil {
				continue
			}
			f, _ := strconv.ParseFloat(strings.TrimSpace(*c), 64)
			v := int64(f)
			out[i] = &v
		}
		return &Column{Name: name, Type: TypeInt, Ints: out}, true
	}

	out := make([]*float64, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		f, _ := strconv.ParseFloat(strings.TrimSpace(*c), 64)
		out[i] = &f
	}
	return &Column{Name: name, Type: TypeFloat, Floats: out}, true
}

// inferDatetime succeeds when every non-null cell parses under exactly one
// layout from dateLayouts, tried in order.
func inferDatetime(name string, cells []*string, nonNull []string) (*Column, bool) {
	if len(nonNull) == 0 {
		return nil, false
	}

	for _, layout := range dateLayouts {
		if !allParse(layout, nonNull) {
			continue
		}
		out := make([]*time.Time, len(cells))
		for i, c := range cells {
			if c == nil {
				continue
			}
			t, err := time.Parse(layout, strings.TrimSpace(*c))
			if err != nil {
				continue
			}
			out[i] = &t
		}
		return &Column{Name: name, Type: TypeDateTime, Times: out}, true
	}
	return nil, false
}

func allParse(layout string, values []string) bool {
	for _, v := range values {
		if _, err := time.Parse(layout, strings.TrimSpace(v)); err != nil {
			return false
		}
	}
	return true
}
