package relstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/csvfs/internal/typist"
)

// datetimeStorageLayout is the on-disk text rendering for TypeDateTime
// cells. The stats engine's start_date/end_date values are the MIN/MAX of
// this stored text, so they appear in the same layout.
const datetimeStorageLayout = "2006-01-02 15:04:05"

// IngestTable replaces the mirror table named tableName wholesale with the
// contents of table, per §3 "may be re-ingested wholesale (replace, not
// merge)." Columns inferred as int but containing any null value are
// stored with TEXT affinity instead of INTEGER, to preserve null
// distinguishability from zero (§4.3.2).
func (e *Engine) IngestTable(tableName string, table *typist.Table) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := quoteIdent(tableName)
	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoted)); err != nil {
		return fmt.Errorf("drop existing mirror table %s: %w", tableName, err)
	}

	ddl, err := createTableDDL(tableName, table)
	if err != nil {
		return fmt.Errorf("build DDL for %s: %w", tableName, err)
	}
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create mirror table %s: %w", tableName, err)
	}

	if table.RowCount() > 0 {
		columns := table.ColumnNames()
		builder := sq.Insert(quoted).Columns(columns...)
		placeholderRow := make([]interface{}, len(columns))
		sqlStr, _, err := builder.Values(placeholderRow...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert SQL for %s: %w", tableName, err)
		}

		stmt, err := tx.Prepare(sqlStr)
		if err != nil {
			return fmt.Errorf("prepare insert for %s: %w", tableName, err)
		}
		defer stmt.Close()

		storeAsText := textStorageOverrides(table)
		for r := 0; r < table.RowCount(); r++ {
			row := make([]interface{}, len(table.Columns))
			for c, col := range table.Columns {
				row[c] = storageValue(col, r, storeAsText[col.Name])
			}
			if _, err := stmt.Exec(row...); err != nil {
				return fmt.Errorf("insert row %d into %s: %w", r, tableName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest for %s: %w", tableName, err)
	}
	return nil
}

// textStorageOverrides implements the "int with nulls stored as text"
// column-storage override map from §4.3.2.
func textStorageOverrides(table *typist.Table) map[string]bool {
	overrides := map[string]bool{}
	for _, col := range table.Columns {
		if col.Type == typist.TypeInt && col.NullCount() > 0 {
			overrides[col.Name] = true
		}
	}
	return overrides
}

func createTableDDL(tableName string, table *typist.Table) (string, error) {
	var cols []string
	storeAsText := textStorageOverrides(table)
	for _, col := range table.Columns {
		sqlType := sqlTypeFor(col.Type)
		if storeAsText[col.Name] {
			sqlType = "TEXT"
		}
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(col.Name), sqlType))
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s has no columns", tableName)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(cols, ", ")), nil
}

func sqlTypeFor(t typist.Type) string {
	switch t {
	case typist.TypeInt:
		return "INTEGER"
	case typist.TypeFloat:
		return "REAL"
	case typist.TypeBool:
		return "INTEGER"
	case typist.TypeDateTime:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// storageValue converts one cell of a typed column into the value passed to
// database/sql for insertion.
func storageValue(col *typist.Column, row int, asText bool) interface{} {
	v := col.At(row)
	if v == nil {
		return nil
	}

	if asText {
		switch t := v.(type) {
		case int64:
			return strconv.FormatInt(t, 10)
		default:
			return fmt.Sprintf("%v", t)
		}
	}

	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return t.Format(datetimeStorageLayout)
	default:
		return t
	}
}

// quoteIdent wraps an identifier in double quotes, escaping embedded quotes,
// so table/column names that collide with SQL keywords or contain odd
// characters (common in arbitrary CSV headers) remain valid identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
