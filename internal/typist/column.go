// Package typist infers and persists per-column types for mirror tables.
// A column starts as raw, untyped CSV text; Typist classifies each column
// into one of {int, float, bool, datetime, string} and rewrites it as a
// typed column rather than mutating the raw column in place.
package typist

import "time"

// Type is one of the five column types this system recognizes.
type Type string

const (
	TypeInt      Type = "int"
	TypeFloat    Type = "float"
	TypeBool     Type = "bool"
	TypeDateTime Type = "datetime"
	TypeString   Type = "string"
)

// Column is a tagged union: exactly one of the typed slices below is
// populated, selected by Type. Each slice has the same length (the table's
// row count) and a nil element denotes a null cell.
type Column struct {
	Name string
	Type Type

	Ints    []*int64
	Floats  []*float64
	Bools   []*bool
	Times   []*time.Time
	Strings []*string
}

// NewRawColumn builds an untyped string column directly from CSV cell text.
// An empty cell is treated as null per the Typist.Apply contract (§4.4
// step 2 of the "apply" algorithm).
func NewRawColumn(name string, cells []string) *Column {
	strs := make([]*string, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		v := c
		strs[i] = &v
	}
	return &Column{Name: name, Type: TypeString, Strings: strs}
}

// Len returns the column's row count, regardless of type.
func (c *Column) Len() int {
	switch c.Type {
	case TypeInt:
		return len(c.Ints)
	case TypeFloat:
		return len(c.Floats)
	case TypeBool:
		return len(c.Bools)
	case TypeDateTime:
		return len(c.Times)
	default:
		return len(c.Strings)
	}
}

// NullCount returns the number of null cells in the column.
func (c *Column) NullCount() int {
	n := 0
	switch c.Type {
	case TypeInt:
		for _, v := range c.Ints {
			if v == nil {
				n++
			}
		}
	case TypeFloat:
		for _, v := range c.Floats {
			if v == nil {
				n++
			}
		}
	case TypeBool:
		for _, v := range c.Bools {
			if v == nil {
				n++
			}
		}
	case TypeDateTime:
		for _, v := range c.Times {
			if v == nil {
				n++
			}
		}
	default:
		for _, v := range c.Strings {
			if v == nil {
				n++
			}
		}
	}
	return n
}

// At returns the row i value as a generic interface, nil for a null cell.
func (c *Column) At(i int) interface{} {
	switch c.Type {
	case TypeInt:
		if c.Ints[i] == nil {
			return nil
		}
		return *c.Ints[i]
	case TypeFloat:
		if c.Floats[i] == nil {
			return nil
		}
		return *c.Floats[i]
	case TypeBool:
		if c.Bools[i] == nil {
			return nil
		}
		return *c.Bools[i]
	case TypeDateTime:
		if c.Times[i] == nil {
			return nil
		}
		return *c.Times[i]
	default:
		if c.Strings[i] == nil {
			return nil
		}
		return *c.Strings[i]
	}
}

// rawCells reconstructs the original non-null-aware string cells of a raw
// (TypeString) column, used as the input to every inference strategy.
func rawCells(c *Column) []string {
	out := make([]string, len(c.Strings))
	for i, v := range c.Strings {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Table is a column-oriented in-memory representation of one mirror table's
// data, used both as the input to Typist.Apply and as the source rows for
// relstore ingestion.
type Table struct {
	Columns []*Column
}

// NewRawTable builds an untyped Table from a CSV header and rows.
func NewRawTable(header []string, rows [][]string) *Table {
	t := &Table{Columns: make([]*Column, len(header))}
	for ci, name := range header {
		cells := make([]string, len(rows))
		for ri, row := range rows {
			if ci < len(row) {
				cells[ri] = row[ci]
			}
		}
		t.Columns[ci] = NewRawColumn(name, cells)
	}
	return t
}

// RowCount returns the number of rows, or 0 for a table with no columns.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// ColumnNames returns the table's column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column named name, or nil if absent.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}
