package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/csvfs/internal/backend"
)

func mustMount(t testing.TB, files map[string]string) *backend.Backend {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	b, err := backend.Open(dir, 3000)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestUpdateStatsTable(t *testing.T) {
	b := mustMount(t, map[string]string{
		"people.csv": "name,age\nAda,36\nBo,\n",
	})
	store := New(b)

	doc, err := store.UpdateStats("people")
	require.NoError(t, err)

	tableDoc, ok := doc.(*TableDoc)
	require.True(t, ok)
	require.Equal(t, 2, tableDoc.Rows)
	require.Equal(t, 2, tableDoc.Columns)
	require.Equal(t, "string", tableDoc.Schema["name"].(map[string]interface{})["type"])
	require.Equal(t, "int", tableDoc.Schema["age"].(map[string]interface{})["type"])
	require.EqualValues(t, 1, tableDoc.Schema["age"].(map[string]interface{})["nulls"])
}

func TestUpdateStatsTableCaches(t *testing.T) {
	b := mustMount(t, map[string]string{"people.csv": "name\nAda\n"})
	store := New(b)

	first, err := store.UpdateStats("people")
	require.NoError(t, err)
	second, err := store.UpdateStats("people")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestUpdateStatsGlobal(t *testing.T) {
	b := mustMount(t, map[string]string{
		"people.csv": "name\nAda\nBo\n",
		"places.csv": "city\nNYC\n",
	})
	store := New(b)

	doc, err := store.UpdateStats("global")
	require.NoError(t, err)

	globalDoc, ok := doc.(*GlobalDoc)
	require.True(t, ok)
	require.Equal(t, 3, globalDoc.TotalRows)
	require.Len(t, globalDoc.Files, 2)
}
