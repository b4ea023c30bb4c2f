package relstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestEngine opens an on-disk (not :memory:) database in t.TempDir(),
// since :memory: databases in mattn/go-sqlite3 are per-connection and the
// bookkeeping/ingest paths here open more than one connection over the
// engine's lifetime in some tests.
func NewTestEngine(t testing.TB) *Engine {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	e, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	return e
}
