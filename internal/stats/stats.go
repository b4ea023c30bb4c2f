// Package stats implements the Statistics Engine: per-table and global
// descriptive statistics documents, cached until explicitly invalidated
// (§4.5).
package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/csvfs/internal/backend"
	"github.com/mvp-joe/csvfs/internal/typist"
)

const timeLayout = time.RFC3339

// Store computes, caches, and serializes statistics documents. It owns the
// statistics cache (§3 Ownership: "Virtual Filesystem Operations owns ...
// statistics cache" — in this implementation the cache lives here, behind
// the same mutex, and vfs holds a reference to this Store rather than a
// second copy of the cache).
type Store struct {
	mu      sync.Mutex
	backend *backend.Backend
	tables  map[string]*TableDoc
	global  *GlobalDoc
}

// New returns a Store backed by b.
func New(b *backend.Backend) *Store {
	return &Store{backend: b, tables: map[string]*TableDoc{}}
}

// FileEntry is one row of GlobalDoc.Files.
type FileEntry struct {
	Filename string `json:"filename"`
	StatFile string `json:"stat_file"`
}

// GlobalDoc is the "global" statistics document (§4.5).
type GlobalDoc struct {
	UpToDate    bool        `json:"up_to_date"`
	Files       []FileEntry `json:"files"`
	TotalRows   int         `json:"total_rows"`
	TotalColumns int        `json:"total_columns"`
}

// TableDoc is a per-table statistics document (§4.5).
type TableDoc struct {
	File         string                 `json:"file"`
	SizeBytes    int64                  `json:"size_bytes"`
	LastModified string                 `json:"last_modified"`
	UpToDate     bool                   `json:"up_to_date"`
	LastAnalyzed string                 `json:"last_analyzed"`
	StaleReason  *string                `json:"stale_reason"`
	Rows         int                    `json:"rows"`
	Columns      int                    `json:"columns"`
	Schema       map[string]interface{} `json:"schema"`
}

// Invalidate clears the cached document for table, or the global document
// if table == "global". The next UpdateStats call recomputes it.
func (s *Store) Invalidate(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table == "global" {
		s.global = nil
		return
	}
	delete(s.tables, table)
}

// UpdateStats returns the current statistics document for table (or
// "global"), computing and caching it first if necessary (§4.5).
func (s *Store) UpdateStats(table string) (interface{}, error) {
	if table == "global" {
		return s.updateGlobal()
	}
	return s.updateTable(table)
}

func (s *Store) updateGlobal() (*GlobalDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.global != nil && s.global.UpToDate {
		return s.global, nil
	}

	tables, err := s.backend.Tables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	doc := &GlobalDoc{UpToDate: true}
	for _, table := range tables {
		rows, err := s.backend.RowCount(table)
		if err != nil {
			return nil, fmt.Errorf("row count for %s: %w", table, err)
		}
		ty := s.backend.Typist(table)
		cols := 0
		if ty != nil {
			cols = len(ty.Schema)
		}
		doc.Files = append(doc.Files, FileEntry{Filename: "/data/" + table + ".csv", StatFile: "/stats/" + table + ".json"})
		doc.TotalRows += rows
		doc.TotalColumns += cols
	}

	s.global = doc
	return doc, nil
}

func (s *Store) updateTable(table string) (*TableDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.tables[table]; ok {
		return cached, nil
	}

	ty := s.backend.Typist(table)
	if ty == nil {
		return nil, fmt.Errorf("no typist registered for table %s", table)
	}

	rows, err := s.backend.RowCount(table)
	if err != nil {
		return nil, fmt.Errorf("row count: %w", err)
	}

	result := s.backend.Query(fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table)))
	if result == nil {
		return nil, fmt.Errorf("fetch table %s failed", table)
	}

	sizeBytes := 0
	if rendered, err := result.RenderCSV(); err == nil {
		sizeBytes = len(rendered)
	}

	schema := map[string]interface{}{}
	for name, entry := range ty.Schema {
		stat, err := s.columnStat(table, name, entry)
		if err != nil {
			return nil, fmt.Errorf("column stat for %s.%s: %w", table, name, err)
		}
		schema[name] = stat
	}

	lastModified := s.backend.CreatedAt()
	if t, ok := s.backend.ModTime(table); ok {
		lastModified = t
	}

	doc := &TableDoc{
		File:         table + ".csv",
		SizeBytes:    int64(sizeBytes),
		LastModified: lastModified.UTC().Format(timeLayout),
		UpToDate:     true,
		LastAnalyzed: time.Now().UTC().Format(timeLayout),
		StaleReason:  nil,
		Rows:         rows,
		Columns:      len(ty.Schema),
		Schema:       schema,
	}

	s.tables[table] = doc
	return doc, nil
}

// columnStat computes the statistics-document fields for a single column,
// shaped per its type (§4.5).
func (s *Store) columnStat(table, column string, entry typist.Entry) (map[string]interface{}, error) {
	base := map[string]interface{}{
		"type":     string(entry.Type),
		"inferred": entry.Inferred,
	}

	col := quoteIdent(column)
	tbl := quoteIdent(table)

	switch entry.Type {
	case typist.TypeInt:
		result := s.backend.Query(fmt.Sprintf(
			`SELECT COUNT(*) - COUNT(%s), MIN(CAST(%s AS INTEGER)), MAX(CAST(%s AS INTEGER)) FROM %s`,
			col, col, col, tbl))
		if result == nil || len(result.Rows) == 0 {
			return nil, fmt.Errorf("query failed")
		}
		row := result.Rows[0]
		base["nulls"] = toInt(row[0])
		base["min"] = row[1]
		base["max"] = row[2]

	case typist.TypeFloat:
		result := s.backend.Query(fmt.Sprintf(
			`SELECT COUNT(*) - COUNT(%s), MIN(CAST(%s AS REAL)), MAX(CAST(%s AS REAL)), AVG(CAST(%s AS REAL)) FROM %s`,
			col, col, col, col, tbl))
		if result == nil || len(result.Rows) == 0 {
			return nil, fmt.Errorf("query failed")
		}
		row := result.Rows[0]
		base["nulls"] = toInt(row[0])
		base["min"] = row[1]
		base["max"] = row[2]
		base["avg"] = row[3]

	case typist.TypeBool:
		result := s.backend.Query(fmt.Sprintf(`SELECT COUNT(*) - COUNT(%s) FROM %s`, col, tbl))
		if result == nil || len(result.Rows) == 0 {
			return nil, fmt.Errorf("query failed")
		}
		base["nulls"] = toInt(result.Rows[0][0])

	case typist.TypeDateTime:
		result := s.backend.Query(fmt.Sprintf(
			`SELECT COUNT(*) - COUNT(%s), MIN(%s), MAX(%s) FROM %s`, col, col, col, tbl))
		if result == nil || len(result.Rows) == 0 {
			return nil, fmt.Errorf("query failed")
		}
		row := result.Rows[0]
		base["nulls"] = toInt(row[0])
		base["start_date"] = row[1]
		base["end_date"] = row[2]

	default:
		result := s.backend.Query(fmt.Sprintf(
			`SELECT COUNT(*) - COUNT(%s), COUNT(DISTINCT %s) FROM %s`, col, col, tbl))
		if result == nil || len(result.Rows) == 0 {
			return nil, fmt.Errorf("query failed")
		}
		row := result.Rows[0]
		nulls := toInt(row[0])
		distinct := toInt(row[1])
		if nulls > 0 {
			// COUNT(DISTINCT col) excludes NULLs; count the null group as
			// one more distinct value to match a dedup over the raw column.
			distinct++
		}
		base["nulls"] = nulls
		base["distinct"] = distinct
	}

	return base, nil
}

func toInt(v interface{}) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	default:
		return 0
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
