package typist

// Entry is one column's recorded type and provenance.
type Entry struct {
	Type     Type
	Inferred bool
}

// Typist is a per-table column-type inference engine. Its schema map is the
// single source of truth for whether a column's type came from heuristic
// inference or from a user-declared override (§3 "Typist schema").
type Typist struct {
	Schema map[string]Entry
}

// New returns an empty Typist with no prior schema knowledge.
func New() *Typist {
	return &Typist{Schema: map[string]Entry{}}
}

// NewFromOverride builds a Typist whose given columns are pre-seeded as
// user-declared (inferred=false), per the schema override file contract in
// §3/§4.3.1 step 5.
func NewFromOverride(overrides map[string]Type) *Typist {
	t := New()
	for name, typ := range overrides {
		t.Schema[name] = Entry{Type: typ, Inferred: false}
	}
	return t
}

// Apply rewrites every named column of table in place: columns with
// a prior schema entry are coerced to the recorded type; columns
// without one run the inference cascade (§4.4) and the result is
// recorded into Schema as inferred=true. An empty columns slice means
// "all columns in the table."
func (t *Typist) Apply(table *Table, columns ...string) {
	if len(columns) == 0 {
		columns = table.ColumnNames()
	}

	for _, name := range columns {
		raw := table.Column(name)
		if raw == nil {
			continue
		}

		if entry, ok := t.Schema[name]; ok {
			table.replace(coerceTo(raw, entry.Type))
			continue
		}

		typed := infer(raw)
		table.replace(typed)
		t.Schema[name] = Entry{Type: typed.Type, Inferred: true}
	}
}

// replace swaps the column with the same name for a newly typed one,
// matching the "returns a new typed column rather than mutating in place"
// guidance for the raw source column (§9).
func (t *Table) replace(col *Column) {
	for i, c := range t.Columns {
		if c.Name == col.Name {
			t.Columns[i] = col
			return
		}
	}
}
