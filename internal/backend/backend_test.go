package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t testing.TB, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestOpenIngestsPlainCSVIntoMirrorTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,age\nAda,36\nBo,41\n")

	b, err := Open(dir, 3000)
	require.NoError(t, err)
	defer b.Close()

	tables, err := b.Tables()
	require.NoError(t, err)
	require.Contains(t, tables, "people")

	rows, err := b.RowCount("people")
	require.NoError(t, err)
	require.Equal(t, 2, rows)
}

func TestOpenWithSchemaOverridePresentStillIngestsTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,age\nAda,36\nBo,41\n")
	writeFile(t, dir, "people.csv.schema", "age:str\n")

	b, err := Open(dir, 3000)
	require.NoError(t, err)
	defer b.Close()

	tables, err := b.Tables()
	require.NoError(t, err)
	require.Contains(t, tables, "people", "mirror table must exist even when a schema override file is present at mount time")

	rows, err := b.RowCount("people")
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	ty := b.Typist("people")
	require.NotNil(t, ty)
	entry, ok := ty.Schema["age"]
	require.True(t, ok)
	require.False(t, entry.Inferred, "overridden column must be recorded as user-declared, not inferred")
}

func TestReopenWithoutChangesKeepsMirrorTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,age\nAda,36\n")

	b1, err := Open(dir, 3000)
	require.NoError(t, err)
	require.NoError(t, b1.Close())

	b2, err := Open(dir, 3000)
	require.NoError(t, err)
	defer b2.Close()

	rows, err := b2.RowCount("people")
	require.NoError(t, err)
	require.Equal(t, 1, rows)
}
