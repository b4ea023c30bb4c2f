package relstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/csvfs/internal/typist"
)

func TestIngestAndQueryRoundTrip(t *testing.T) {
	e := NewTestEngine(t)

	table := typist.NewRawTable([]string{"name", "age"}, [][]string{{"Ada", "36"}, {"Bo", ""}})
	ty := typist.New()
	ty.Apply(table)

	require.NoError(t, e.IngestTable("people", table))

	result, err := e.Query(`SELECT * FROM "people"`)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "age"}, result.Columns)
	require.Len(t, result.Rows, 2)
}

func TestIngestReplacesWholesale(t *testing.T) {
	e := NewTestEngine(t)

	first := typist.NewRawTable([]string{"name"}, [][]string{{"Ada"}, {"Bo"}, {"Cy"}})
	typist.New().Apply(first)
	require.NoError(t, e.IngestTable("people", first))

	second := typist.NewRawTable([]string{"name"}, [][]string{{"Dee"}})
	typist.New().Apply(second)
	require.NoError(t, e.IngestTable("people", second))

	result, err := e.Query(`SELECT * FROM "people"`)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
}

func TestIngestIntWithNullStoredAsText(t *testing.T) {
	e := NewTestEngine(t)

	table := typist.NewRawTable([]string{"age"}, [][]string{{"36"}, {""}})
	ty := typist.New()
	ty.Apply(table)
	require.Equal(t, typist.TypeInt, ty.Schema["age"].Type)

	require.NoError(t, e.IngestTable("people", table))

	result, err := e.Query(`SELECT typeof(age) FROM "people" LIMIT 1`)
	require.NoError(t, err)
	require.Equal(t, "text", result.Rows[0][0])
}

func TestRenderCSV(t *testing.T) {
	e := NewTestEngine(t)
	table := typist.NewRawTable([]string{"name", "age"}, [][]string{{"Ada", "36"}})
	typist.New().Apply(table)
	require.NoError(t, e.IngestTable("people", table))

	result, err := e.Query(`SELECT * FROM "people"`)
	require.NoError(t, err)

	out, err := result.RenderCSV()
	require.NoError(t, err)
	require.Equal(t, "name,age\nAda,36\n", string(out))
}
