package typist

import "testing"

func TestApplyInfersBoolBeforeNumeric(t *testing.T) {
	table := NewRawTable([]string{"flag"}, [][]string{{"1"}, {"0"}, {"1"}})
	ty := New()
	ty.Apply(table)

	if ty.Schema["flag"].Type != TypeBool {
		t.Fatalf("got %v, want bool (boolean must win over numeric for 0/1 columns)", ty.Schema["flag"].Type)
	}
	if !ty.Schema["flag"].Inferred {
		t.Fatalf("expected inferred=true")
	}
}

func TestApplyInfersIntWithNulls(t *testing.T) {
	table := NewRawTable([]string{"age"}, [][]string{{"36"}, {""}})
	ty := New()
	ty.Apply(table)

	if ty.Schema["age"].Type != TypeInt {
		t.Fatalf("got %v, want int", ty.Schema["age"].Type)
	}
	col := table.Column("age")
	if col.NullCount() != 1 {
		t.Fatalf("expected 1 null, got %d", col.NullCount())
	}
}

func TestApplyInfersFloat(t *testing.T) {
	table := NewRawTable([]string{"price"}, [][]string{{"1.5"}, {"2.25"}})
	ty := New()
	ty.Apply(table)
	if ty.Schema["price"].Type != TypeFloat {
		t.Fatalf("got %v, want float", ty.Schema["price"].Type)
	}
}

func TestApplyInfersDatetime(t *testing.T) {
	table := NewRawTable([]string{"created"}, [][]string{{"2024-01-15"}, {"2024-02-20"}})
	ty := New()
	ty.Apply(table)
	if ty.Schema["created"].Type != TypeDateTime {
		t.Fatalf("got %v, want datetime", ty.Schema["created"].Type)
	}
}

func TestApplyFallsBackToString(t *testing.T) {
	table := NewRawTable([]string{"name"}, [][]string{{"Ada"}, {"Bo"}})
	ty := New()
	ty.Apply(table)
	if ty.Schema["name"].Type != TypeString {
		t.Fatalf("got %v, want string", ty.Schema["name"].Type)
	}
}

func TestApplyAllNullColumnDefaultsToString(t *testing.T) {
	table := NewRawTable([]string{"empty"}, [][]string{{""}, {""}})
	ty := New()
	ty.Apply(table)
	if ty.Schema["empty"].Type != TypeString {
		t.Fatalf("got %v, want string for all-null column", ty.Schema["empty"].Type)
	}
}

func TestApplyOverrideNeverChangesRecordedType(t *testing.T) {
	table := NewRawTable([]string{"age"}, [][]string{{"36"}, {""}})
	ty := NewFromOverride(map[string]Type{"age": TypeString})
	ty.Apply(table)

	if ty.Schema["age"].Type != TypeString {
		t.Fatalf("got %v, want string (override must not be overridden by inference)", ty.Schema["age"].Type)
	}
	if ty.Schema["age"].Inferred {
		t.Fatalf("expected inferred=false for an override-sourced column")
	}
}

func TestApplyRespectsPersistedSchemaOverInference(t *testing.T) {
	table := NewRawTable([]string{"flag"}, [][]string{{"1"}, {"0"}})
	ty := New()
	ty.Schema["flag"] = Entry{Type: TypeString, Inferred: true}
	ty.Apply(table)

	if ty.Schema["flag"].Type != TypeString {
		t.Fatalf("got %v, want string (persisted schema wins over re-inference)", ty.Schema["flag"].Type)
	}
}
