// Package vfs implements the Virtual Filesystem Operations component: the
// kernel-facing operation set that dispatches each path, via the Namespace
// Resolver, to the Backend, the Statistics Engine, or one of the two
// in-memory maps this package owns directly (virtual query files, query
// results) (§4.1).
package vfs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"github.com/mvp-joe/csvfs/internal/backend"
	"github.com/mvp-joe/csvfs/internal/namespace"
	"github.com/mvp-joe/csvfs/internal/rendercache"
	"github.com/mvp-joe/csvfs/internal/relstore"
	"github.com/mvp-joe/csvfs/internal/stats"
)

const renderCacheWeightBytes = 64 << 20 // 64 MiB of cached canonical renderings

// queryOutcome records whether a query batch's final statement succeeded.
// A present map entry with a nil Result is the "null marker" of §4.3.3/§7.
type queryOutcome struct {
	Result *relstore.Result
}

// FS implements pathfs.FileSystem over a single mounted CSV source
// directory.
type FS struct {
	pathfs.FileSystem

	backend *backend.Backend
	stats   *stats.Store
	cache   *rendercache.Cache

	mu           sync.Mutex
	virtualFiles map[string]string
	queryResults map[string]*queryOutcome
	generation   int64
}

// New builds an FS over an already-reconciled Backend.
func New(b *backend.Backend) (*FS, error) {
	cache, err := rendercache.New(renderCacheWeightBytes)
	if err != nil {
		return nil, fmt.Errorf("build render cache: %w", err)
	}

	return &FS{
		FileSystem:   pathfs.NewDefaultFileSystem(),
		backend:      b,
		stats:        stats.New(b),
		cache:        cache,
		virtualFiles: map[string]string{},
		queryResults: map[string]*queryOutcome{},
	}, nil
}

// bump advances the mutation counter on query writes, truncations, result
// executions and unlinks. Cached CSV renderings are keyed by the table's
// source mtime (csvGeneration), not by this counter, so bumping it does not
// evict them.
func (fs *FS) bump() int64 {
	fs.generation++
	return fs.generation
}

// GetAttr implements getattr(path) (§4.1).
func (fs *FS) GetAttr(name string, ctx *fuse.Context) (*fuse.Attr, fuse.Status) {
	p := toVirtualPath(name)
	kind := namespace.Classify(p)

	switch kind {
	case namespace.Directory, namespace.PaginatedLeafDirectory, namespace.PaginatedDirectory:
		return fs.dirAttr(), fuse.OK

	case namespace.QueryFile:
		fs.mu.Lock()
		content, ok := fs.virtualFiles[p]
		fs.mu.Unlock()
		if !ok {
			return nil, fuse.ENOENT
		}
		return fs.fileAttr(uint64(len(content)), fs.backend.CreatedAt(), fs.backend.CreatedAt()), fuse.OK

	case namespace.ResultFile:
		stem := namespace.QueryName(p)
		fs.mu.Lock()
		_, ok := fs.queryResults[stem]
		fs.mu.Unlock()
		if !ok {
			return nil, fuse.ENOENT
		}
		data, err := fs.renderResultFile(stem)
		if err != nil {
			return nil, fuse.EIO
		}
		return fs.fileAttr(uint64(len(data)), fs.backend.CreatedAt(), fs.backend.CreatedAt()), fuse.OK

	case namespace.StatsFile:
		table := namespace.TableFromStatsPath(p)
		data, err := fs.renderStatsFile(table)
		if err != nil {
			return nil, fuse.ENOENT
		}
		return fs.fileAttr(uint64(len(data)), fs.backend.CreatedAt(), fs.backend.CreatedAt()), fuse.OK

	case namespace.CSVFile:
		table := namespace.TableFromDataPath(p)
		data, err := fs.renderCSVFile(table)
		if err != nil {
			return nil, fuse.ENOENT
		}
		return fs.fileAttr(uint64(len(data)), fs.mtimeFor(table), fs.backend.CreatedAt()), fuse.OK

	case namespace.PaginatedCSVFile:
		table, a, b, ok := namespace.ParsePage(lastSegment(p))
		if !ok {
			return nil, fuse.ENOENT
		}
		data, err := fs.renderPage(table, a, b)
		if err != nil {
			return nil, fuse.ENOENT
		}
		return fs.fileAttr(uint64(len(data)), fs.mtimeFor(table), fs.backend.CreatedAt()), fuse.OK
	}

	return nil, fuse.ENOENT
}

// OpenDir implements readdir(path) (§4.1, §4.2 enumerations).
func (fs *FS) OpenDir(name string, ctx *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	p := toVirtualPath(name)
	kind := namespace.Classify(p)

	switch {
	case p == "/":
		return dirEntries("data", "sql", "stats"), fuse.OK
	case p == "/sql":
		return dirEntries("queries", "results"), fuse.OK
	case p == "/data":
		return fs.listData()
	case p == "/sql/queries":
		return fs.listQueries()
	case p == "/sql/results":
		return fs.listResults()
	case p == "/stats":
		return fs.listStats()
	case kind == namespace.PaginatedDirectory:
		return fs.listPageWindows(namespace.TableFromPagedDir(p))
	case kind == namespace.PaginatedLeafDirectory:
		table, a, b, ok := namespace.ParsePage(lastSegment(p))
		if !ok {
			return nil, fuse.ENOENT
		}
		return fileEntries(fmt.Sprintf("%s.%d-%d.csv", table, a, b)), fuse.OK
	case p == "/schemas":
		return []fuse.DirEntry{}, fuse.OK
	}

	return nil, fuse.ENOENT
}

func (fs *FS) listData() ([]fuse.DirEntry, fuse.Status) {
	tables, err := fs.backend.Tables()
	if err != nil {
		return nil, fuse.EIO
	}
	sort.Strings(tables)

	var names []string
	for _, table := range tables {
		rows, err := fs.backend.RowCount(table)
		if err != nil {
			continue
		}
		if rows <= fs.backend.PageSize() {
			names = append(names, table+".csv")
		} else {
			names = append(names, "paged_"+table)
		}
	}
	return fileEntries(names...), fuse.OK
}

func (fs *FS) listPageWindows(table string) ([]fuse.DirEntry, fuse.Status) {
	rows, err := fs.backend.RowCount(table)
	if err != nil {
		return nil, fuse.ENOENT
	}
	pageSize := fs.backend.PageSize()

	var names []string
	for a := 0; a < rows; a += pageSize {
		b := a + pageSize - 1
		if b > rows-1 {
			b = rows - 1
		}
		names = append(names, fmt.Sprintf("%s.%d-%d", table, a, b))
	}
	return dirEntries(names...), fuse.OK
}

func (fs *FS) listQueries() ([]fuse.DirEntry, fuse.Status) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var names []string
	for p := range fs.virtualFiles {
		names = append(names, lastSegment(p))
	}
	sort.Strings(names)
	return fileEntries(names...), fuse.OK
}

func (fs *FS) listResults() ([]fuse.DirEntry, fuse.Status) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var names []string
	for name := range fs.queryResults {
		names = append(names, name+".csv")
	}
	sort.Strings(names)
	return fileEntries(names...), fuse.OK
}

func (fs *FS) listStats() ([]fuse.DirEntry, fuse.Status) {
	tables, err := fs.backend.Tables()
	if err != nil {
		return nil, fuse.EIO
	}
	sort.Strings(tables)

	names := make([]string, 0, len(tables)+1)
	for _, table := range tables {
		names = append(names, table+".json")
	}
	names = append(names, "global.json")
	return fileEntries(names...), fuse.OK
}

// Access implements access(path, mode) (§4.1.2): directories are always
// F_OK/R_OK and never X_OK; data files are R_OK when they exist; W_OK is
// granted only to query files.
func (fs *FS) Access(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	p := toVirtualPath(name)
	kind := namespace.Classify(p)

	if mode&xOK() != 0 {
		return fuse.EACCES
	}

	switch kind {
	case namespace.Directory, namespace.PaginatedDirectory, namespace.PaginatedLeafDirectory:
		return fuse.OK
	case namespace.QueryFile:
		// Query files are readable and writable regardless of whether one
		// has been created at this path yet (create-on-write, §4.1.3).
		return fuse.OK

	case namespace.ResultFile:
		stem := namespace.QueryName(p)
		fs.mu.Lock()
		_, ok := fs.queryResults[stem]
		fs.mu.Unlock()
		if !ok {
			return fuse.ENOENT
		}
		if mode&wOK() != 0 {
			return fuse.EACCES
		}
		return fuse.OK

	case namespace.CSVFile, namespace.StatsFile:
		if mode&wOK() != 0 {
			return fuse.EACCES
		}
		return fuse.OK

	case namespace.PaginatedCSVFile:
		if mode&wOK() != 0 {
			return fuse.EACCES
		}
		table, a, _, ok := namespace.ParsePage(lastSegment(p))
		if !ok {
			return fuse.ENOENT
		}
		rows, err := fs.backend.RowCount(table)
		if err != nil || a >= rows {
			return fuse.ENOENT
		}
		return fuse.OK
	}

	return fuse.ENOENT
}

// Open implements open(path) for every recognized data-bearing kind.
func (fs *FS) Open(name string, flags uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	p := toVirtualPath(name)
	kind := namespace.Classify(p)

	switch kind {
	case namespace.QueryFile:
		return newQueryFile(fs, p), fuse.OK

	case namespace.ResultFile:
		data, err := fs.renderResultFile(namespace.QueryName(p))
		if err != nil {
			return nil, fuse.ENOENT
		}
		return nodefs.NewDataFile(data), fuse.OK

	case namespace.StatsFile:
		data, err := fs.renderStatsFile(namespace.TableFromStatsPath(p))
		if err != nil {
			return nil, fuse.ENOENT
		}
		return nodefs.NewDataFile(data), fuse.OK

	case namespace.CSVFile:
		data, err := fs.renderCSVFile(namespace.TableFromDataPath(p))
		if err != nil {
			return nil, fuse.ENOENT
		}
		return nodefs.NewDataFile(data), fuse.OK

	case namespace.PaginatedCSVFile:
		table, a, b, ok := namespace.ParsePage(lastSegment(p))
		if !ok {
			return nil, fuse.ENOENT
		}
		data, err := fs.renderPage(table, a, b)
		if err != nil {
			return nil, fuse.ENOENT
		}
		return nodefs.NewDataFile(data), fuse.OK
	}

	return nil, fuse.EACCES
}

// Create implements create(path, mode) (§4.1): query files only.
func (fs *FS) Create(name string, flags uint32, mode uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	p := toVirtualPath(name)
	if namespace.Classify(p) != namespace.QueryFile {
		return nil, fuse.EACCES
	}

	fs.mu.Lock()
	if _, exists := fs.virtualFiles[p]; !exists {
		fs.virtualFiles[p] = ""
	}
	fs.mu.Unlock()

	return newQueryFile(fs, p), fuse.OK
}

// Truncate implements truncate(path, length) (§4.1): no-op for non-query
// files, pad-or-cut for query files.
func (fs *FS) Truncate(name string, size uint64, ctx *fuse.Context) fuse.Status {
	p := toVirtualPath(name)
	if namespace.Classify(p) != namespace.QueryFile {
		return fuse.OK
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	content := fs.virtualFiles[p]
	n := int(size)
	if n <= len(content) {
		fs.virtualFiles[p] = content[:n]
	} else {
		fs.virtualFiles[p] = content + strings.Repeat("\x00", n-len(content))
	}
	fs.bump()
	return fuse.OK
}

// Unlink implements unlink(path) (§4.1): removes a query file and its
// coupled result (§8 scenario 6).
func (fs *FS) Unlink(name string, ctx *fuse.Context) fuse.Status {
	p := toVirtualPath(name)
	if namespace.Classify(p) != namespace.QueryFile {
		return fuse.EACCES
	}

	stem := namespace.QueryName(p)

	fs.mu.Lock()
	delete(fs.virtualFiles, p)
	delete(fs.queryResults, stem)
	fs.mu.Unlock()

	fs.cache.Invalidate(p)
	fs.cache.Invalidate("/sql/results/" + stem + ".csv")
	fs.bump()
	return fuse.OK
}

// --- rendering helpers ---

func (fs *FS) renderCSVFile(table string) ([]byte, error) {
	if cached, ok := fs.cache.Get("csv:"+table, fs.csvGeneration(table)); ok {
		return cached, nil
	}
	result := fs.backend.Query(fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table)))
	if result == nil {
		return nil, fmt.Errorf("query failed for table %s", table)
	}
	data, err := result.RenderCSV()
	if err != nil {
		return nil, err
	}
	fs.cache.Set("csv:"+table, fs.csvGeneration(table), data)
	return data, nil
}

func (fs *FS) renderPage(table string, a, b int) ([]byte, error) {
	limit := b - a + 1
	if limit < 0 {
		limit = 0
	}
	result := fs.backend.Query(
		fmt.Sprintf(`SELECT * FROM %s LIMIT ? OFFSET ?`, quoteIdent(table)), limit, a)
	if result == nil {
		return nil, fmt.Errorf("query failed for table %s page %d-%d", table, a, b)
	}
	return result.RenderCSV()
}

func (fs *FS) renderResultFile(name string) ([]byte, error) {
	fs.mu.Lock()
	outcome, ok := fs.queryResults[name]
	fs.mu.Unlock()

	if !ok || outcome.Result == nil {
		return []byte("Query result not found"), nil
	}
	return outcome.Result.RenderCSV()
}

func (fs *FS) renderStatsFile(table string) ([]byte, error) {
	doc, err := fs.stats.UpdateStats(table)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// csvGeneration is stable across reads within a mount since there is no
// hot-reload of source CSVs (§5), so it is safe to key solely on the
// table's recorded source mtime.
func (fs *FS) csvGeneration(table string) int64 {
	t, ok := fs.backend.ModTime(table)
	if !ok {
		return 0
	}
	return t.UnixNano()
}

func (fs *FS) mtimeFor(table string) time.Time {
	if t, ok := fs.backend.ModTime(table); ok {
		return t
	}
	return fs.backend.CreatedAt()
}

// --- small shared utilities ---

func (fs *FS) dirAttr() *fuse.Attr {
	now := time.Now()
	return &fuse.Attr{
		Mode: syscall.S_IFDIR | 0o755,
		Size: 0,
		Atime: uint64(now.Unix()), Mtime: uint64(now.Unix()), Ctime: uint64(now.Unix()),
	}
}

func (fs *FS) fileAttr(size uint64, mtime, ctime time.Time) *fuse.Attr {
	now := time.Now()
	return &fuse.Attr{
		Mode:  syscall.S_IFREG | 0o644,
		Size:  size,
		Atime: uint64(now.Unix()),
		Mtime: uint64(mtime.Unix()),
		Ctime: uint64(ctime.Unix()),
	}
}

func toVirtualPath(name string) string {
	if name == "" {
		return "/"
	}
	if !strings.HasPrefix(name, "/") {
		return "/" + name
	}
	return name
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimSuffix(p, "/"), "/")
	return parts[len(parts)-1]
}

func dirEntries(names ...string) []fuse.DirEntry {
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, fuse.DirEntry{Name: n, Mode: syscall.S_IFDIR})
	}
	return entries
}

func fileEntries(names ...string) []fuse.DirEntry {
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, fuse.DirEntry{Name: n, Mode: syscall.S_IFREG})
	}
	return entries
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func wOK() uint32 { return 2 }
func xOK() uint32 { return 1 }
