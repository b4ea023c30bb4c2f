package csvdecode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFileUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,age\nAda,36\nBo,\n"), 0o644))

	table, err := DecodeFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "age"}, table.Header)
	require.Equal(t, [][]string{{"Ada", "36"}, {"Bo", ""}}, table.Rows)
}

func TestDecodeFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	table, err := DecodeFile(path)
	require.NoError(t, err)
	require.Empty(t, table.Header)
}

func TestDecodeFileWindows1252Fallback(t *testing.T) {
	// 0x93/0x94 are Windows-1252 curly quotes and are not valid UTF-8, so
	// the utf-8 attempt fails and decoding falls back down the ladder. The
	// first fallback, latin-1, maps every byte to a code point, so the
	// cells come back transcoded rather than as the raw bytes.
	path := filepath.Join(t.TempDir(), "quoted.csv")
	raw := []byte("name,note\nAda,\x93hello\x94\n")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	table, err := DecodeFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "note"}, table.Header)
	require.Equal(t, [][]string{{"Ada", "\u0093hello\u0094"}}, table.Rows)
}
