package typist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	typists := map[string]*Typist{
		"people": {Schema: map[string]Entry{
			"name": {Type: TypeString, Inferred: true},
			"age":  {Type: TypeInt, Inferred: true},
		}},
	}

	require.NoError(t, Save(path, typists))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, loaded, "people")
	require.Equal(t, Entry{Type: TypeString, Inferred: true}, loaded["people"].Schema["name"])
	require.Equal(t, Entry{Type: TypeInt, Inferred: true}, loaded["people"].Schema["age"])
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestParseOverrideBody(t *testing.T) {
	overrides, err := ParseOverrideBody("age:STR\n\nname:STR\n")
	require.NoError(t, err)
	require.Equal(t, TypeString, overrides["age"])
	require.Equal(t, TypeString, overrides["name"])
}

func TestParseOverrideBodyRejectsMalformedLine(t *testing.T) {
	_, err := ParseOverrideBody("age STR\n")
	require.Error(t, err)
}

func TestParseOverrideBodyRejectsUnknownType(t *testing.T) {
	_, err := ParseOverrideBody("age:WEIRD\n")
	require.Error(t, err)
}
