package typist

import (
	"strconv"
	"strings"
	"time"
)

// coerceTo rewrites a raw string column into the given type without running
// inference. Used when a column's type is already known, either from a
// schema override file or from a schema persisted on a prior mount (§4.4
// step 1). Cells that fail to parse under the target type become null
// rather than aborting the whole coercion.
func coerceTo(raw *Column, t Type) *Column {
	switch t {
	case TypeBool:
		out := make([]*bool, len(raw.Strings))
		for i, c := range raw.Strings {
			if c == nil || *c == "" {
				f := false
				out[i] = &f
				continue
			}
			if v, ok := boolLexicon[strings.ToLower(strings.TrimSpace(*c))]; ok {
				out[i] = &v
			}
		}
		return &Column{Name: raw.Name, Type: TypeBool, Bools: out}
	case TypeInt:
		out := make([]*int64, len(raw.Strings))
		for i, c := range raw.Strings {
			if c == nil || *c == "" {
				continue
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(*c), 64); err == nil {
				v := int64(f)
				out[i] = &v
			}
		}
		return &Column{Name: raw.Name, Type: TypeInt, Ints: out}
	case TypeFloat:
		out := make([]*float64, len(raw.Strings))
		for i, c := range raw.Strings {
			if c == nil || *c == "" {
				continue
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(*c), 64); err == nil {
				out[i] = &f
			}
		}
		return &Column{Name: raw.Name, Type: TypeFloat, Floats: out}
	case TypeDateTime:
		out := make([]*time.Time, len(raw.Strings))
		for i, c := range raw.Strings {
			if c == nil || *c == "" {
				continue
			}
			for _, layout := range dateLayouts {
				if v, err := time.Parse(layout, strings.TrimSpace(*c)); err == nil {
					out[i] = &v
					break
				}
			}
		}
		return &Column{Name: raw.Name, Type: TypeDateTime, Times: out}
	default:
		return &Column{Name: raw.Name, Type: TypeString, Strings: raw.Strings}
	}
}
