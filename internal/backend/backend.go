// Package backend owns the relational connection, the per-table typists,
// the modification-time cache, and the persisted schema document. It
// reconciles on-disk CSV files with mirror tables at mount time (§4.3).
package backend

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/csvfs/internal/csvdecode"
	"github.com/mvp-joe/csvfs/internal/mountlock"
	"github.com/mvp-joe/csvfs/internal/relstore"
	"github.com/mvp-joe/csvfs/internal/typist"
)

const backendDirName = ".backend"
const databaseFileName = "database.db"
const schemaFileName = "schema.json"
const lockFileName = "mount.lock"

// Backend is the sole owner of the relational connection, the typist map,
// and the schema JSON file (§3 Ownership).
type Backend struct {
	mu sync.Mutex

	sourceDir  string
	backendDir string
	pageSize   int

	engine    *relstore.Engine
	typists   map[string]*typist.Typist
	mcache    map[string]time.Time
	forceSync map[string]bool
	createdAt time.Time
}

// Open runs the full mount-time reconciliation algorithm (§4.3.1) against
// sourceDir and returns a ready Backend.
func Open(sourceDir string, pageSize int) (*Backend, error) {
	backendDir := filepath.Join(sourceDir, backendDirName)
	if err := os.MkdirAll(backendDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backend directory: %w", err)
	}

	guard, err := mountlock.Acquire(filepath.Join(backendDir, lockFileName))
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	engine, err := relstore.Open(filepath.Join(backendDir, databaseFileName))
	if err != nil {
		return nil, err
	}

	b := &Backend{
		sourceDir:  sourceDir,
		backendDir: backendDir,
		pageSize:   pageSize,
		engine:     engine,
		typists:    map[string]*typist.Typist{},
		mcache:     map[string]time.Time{},
		forceSync:  map[string]bool{},
		createdAt:  time.Now(),
	}

	if err := b.reconcile(); err != nil {
		engine.Close()
		return nil, err
	}

	return b, nil
}

// Close releases the relational connection.
func (b *Backend) Close() error {
	return b.engine.Close()
}

// PageSize returns the configured page size for /data/paged_<T> windowing.
func (b *Backend) PageSize() int {
	return b.pageSize
}

// CreatedAt returns the Backend's mount creation timestamp (c_time, §4.1.4).
func (b *Backend) CreatedAt() time.Time {
	return b.createdAt
}

// reconcile implements §4.3.1 steps 1-7.
func (b *Backend) reconcile() error {
	schemaPath := filepath.Join(b.backendDir, schemaFileName)

	loaded, err := typist.Load(schemaPath)
	if err != nil {
		return fmt.Errorf("load persisted schema: %w", err)
	}
	b.typists = loaded

	entries, err := os.ReadDir(b.sourceDir)
	if err != nil {
		return fmt.Errorf("scan source directory: %w", err)
	}

	var schemaOverrideFiles, csvFiles []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".csv.schema"):
			schemaOverrideFiles = append(schemaOverrideFiles, entry)
		case strings.HasSuffix(name, ".csv"):
			csvFiles = append(csvFiles, entry)
		}
	}

	for _, entry := range schemaOverrideFiles {
		if err := b.processSchemaOverride(entry.Name()); err != nil {
			log.Printf("csvfs: schema override %s: %v (treating as absent)", entry.Name(), err)
		}
	}

	for _, entry := range csvFiles {
		if err := b.processCSVFile(entry.Name()); err != nil {
			log.Printf("csvfs: ingest %s: %v", entry.Name(), err)
		}
	}

	if err := typist.Save(schemaPath, b.typists); err != nil {
		return fmt.Errorf("persist schema: %w", err)
	}

	return b.engine.Commit()
}

// processSchemaOverride implements §4.3.1 step 5.
func (b *Backend) processSchemaOverride(fileName string) error {
	path := filepath.Join(b.sourceDir, fileName)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	table := strings.TrimSuffix(fileName, ".csv.schema")

	if _, err := b.touchLastModified(fileName, info.ModTime()); err != nil {
		return err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	overrides, err := typist.ParseOverrideBody(string(body))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	b.typists[table] = typist.NewFromOverride(overrides)
	// Force re-ingestion of the source CSV regardless of its own recorded
	// LastModified entry: the override changes how the table is typed, not
	// whether the CSV content changed, so the sync decision can't hinge on
	// the CSV's mtime bookkeeping alone.
	b.forceSync[table] = true
	return nil
}

// processCSVFile implements §4.3.1 step 6.
func (b *Backend) processCSVFile(fileName string) error {
	table := strings.TrimSuffix(fileName, ".csv")
	path := filepath.Join(b.sourceDir, fileName)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	mtime := info.ModTime()

	if _, ok := b.typists[table]; !ok {
		b.typists[table] = typist.New()
	}

	needsSync, err := b.touchLastModified(fileName, mtime)
	if err != nil {
		return err
	}
	if b.forceSync[table] {
		needsSync = true
	}

	if needsSync {
		if err := b.syncCSVToDB(table, path); err != nil {
			b.mcache[fileName] = mtime
			return err
		}
	}
	b.mcache[fileName] = mtime

	return nil
}

// touchLastModified inserts or updates the LastModified row for fileName
// and reports whether ingestion is required this pass (§4.3.1 step 6b).
func (b *Backend) touchLastModified(fileName string, mtime time.Time) (needsSync bool, err error) {
	entry, ok, err := b.engine.GetLastModified(fileName)
	if err != nil {
		return false, fmt.Errorf("lookup LastModified: %w", err)
	}

	if !ok {
		if err := b.engine.InsertLastModified(fileName, mtime); err != nil {
			return false, err
		}
		return true, nil
	}

	if entry.TimeStamp.Before(mtime) {
		if err := b.engine.UpdateLastModified(fileName, mtime); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// syncCSVToDB implements §4.3.2.
func (b *Backend) syncCSVToDB(table, path string) error {
	decoded, err := csvdecode.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("decode failure: %w", err)
	}

	raw := typist.NewRawTable(decoded.Header, decoded.Rows)
	b.typists[table].Apply(raw)

	if err := b.engine.IngestTable(table, raw); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return nil
}

// Query executes sql against the relational store; any error is reduced to
// a nil Result rather than propagated, per §4.3.3 ("this operation never
// throws to callers").
func (b *Backend) Query(sql string, args ...interface{}) *relstore.Result {
	result, err := b.engine.Query(sql, args...)
	if err != nil {
		log.Printf("csvfs: query failed: %v", err)
		return nil
	}
	return result
}

// ModTime returns the recorded source mtime for a table, used to derive
// mtime for table-backed virtual files (§4.1.4). ok is false if the table
// has no modification-cache entry (e.g. looked up before any mount pass
// touched it), in which case callers fall back to CreatedAt.
func (b *Backend) ModTime(table string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.mcache[table+".csv"]
	return t, ok
}

// Tables returns every mirror table name, excluding bookkeeping and
// engine-internal tables (§6 "Engine-internal tables... must be filtered
// from every enumeration that exposes tables to users").
func (b *Backend) Tables() ([]string, error) {
	result, err := b.engine.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var tables []string
	for _, row := range result.Rows {
		name, _ := row[0].(string)
		if name == "LastModified" || name == "sqlite_sequence" {
			continue
		}
		tables = append(tables, name)
	}
	return tables, nil
}

// RowCount returns the row count of a mirror table.
func (b *Backend) RowCount(table string) (int, error) {
	result := b.Query(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table)))
	if result == nil || len(result.Rows) == 0 {
		return 0, fmt.Errorf("row count query failed for %s", table)
	}
	switch v := result.Rows[0][0].(type) {
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected row count type %T", v)
	}
}

// Typist returns the Typist for table, or nil if none exists.
func (b *Backend) Typist(table string) *typist.Typist {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.typists[table]
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
