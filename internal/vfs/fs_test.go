package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/csvfs/internal/backend"
)

func mustFS(t testing.TB, files map[string]string) *FS {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	b, err := backend.Open(dir, 3000)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	fs, err := New(b)
	require.NoError(t, err)
	return fs
}

func TestOpenDirRoot(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\n"})

	entries, status := fs.OpenDir("", nil)
	require.Equal(t, fuse.OK, status)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.ElementsMatch(t, []string{"data", "sql", "stats"}, names)
}

func TestOpenDirDataListsSmallTableAsSingleFile(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\n"})

	entries, status := fs.OpenDir("data", nil)
	require.Equal(t, fuse.OK, status)
	require.Len(t, entries, 1)
	require.Equal(t, "people.csv", entries[0].Name)
}

func TestGetAttrCSVFile(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\n"})

	attr, status := fs.GetAttr("data/people.csv", nil)
	require.Equal(t, fuse.OK, status)
	require.Greater(t, attr.Size, uint64(0))
}

func TestGetAttrUnknownPathReturnsENOENT(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\n"})

	_, status := fs.GetAttr("data/nope.csv", nil)
	require.Equal(t, fuse.ENOENT, status)
}

func TestOpenCSVFileRendersAllRows(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\nBo,41\n"})

	file, status := fs.Open("data/people.csv", 0, nil)
	require.Equal(t, fuse.OK, status)

	buf := make([]byte, 4096)
	res, rstatus := file.Read(buf, 0)
	require.Equal(t, fuse.OK, rstatus)
	data, rstatus := res.Bytes(buf)
	require.Equal(t, fuse.OK, rstatus)
	require.Contains(t, string(data), "Ada")
	require.Contains(t, string(data), "Bo")
}

func TestQueryFileCreateWriteExecutesAndProducesResult(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\nBo,41\n"})

	file, status := fs.Create("sql/queries/q1.sql", 0, 0o644, nil)
	require.Equal(t, fuse.OK, status)

	sql := []byte(`SELECT name FROM people WHERE age > 40;`)
	n, wstatus := file.Write(sql, 0)
	require.Equal(t, fuse.OK, wstatus)
	require.EqualValues(t, len(sql), n)

	require.Equal(t, fuse.OK, file.Flush())

	result, status := fs.Open("sql/results/q1.csv", 0, nil)
	require.Equal(t, fuse.OK, status)

	buf := make([]byte, 4096)
	rr, rstatus := result.Read(buf, 0)
	require.Equal(t, fuse.OK, rstatus)
	data, rstatus := rr.Bytes(buf)
	require.Equal(t, fuse.OK, rstatus)
	require.Contains(t, string(data), "Bo")
	require.NotContains(t, string(data), "Ada")
}

func TestUnlinkQueryFileRemovesCoupledResult(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name\nAda\n"})

	file, status := fs.Create("sql/queries/q1.sql", 0, 0o644, nil)
	require.Equal(t, fuse.OK, status)
	file.Write([]byte(`SELECT * FROM people;`), 0)
	file.Flush()

	require.Equal(t, fuse.OK, fs.Unlink("sql/queries/q1.sql", nil))

	_, status = fs.GetAttr("sql/results/q1.csv", nil)
	require.Equal(t, fuse.ENOENT, status)
}

func TestStatsFileRendersJSON(t *testing.T) {
	fs := mustFS(t, map[string]string{"people.csv": "name,age\nAda,36\nBo,\n"})

	file, status := fs.Open("stats/people.json", 0, nil)
	require.Equal(t, fuse.OK, status)

	buf := make([]byte, 4096)
	rr, rstatus := file.Read(buf, 0)
	require.Equal(t, fuse.OK, rstatus)
	data, rstatus := rr.Bytes(buf)
	require.Equal(t, fuse.OK, rstatus)
	require.Contains(t, string(data), `"rows"`)
}
