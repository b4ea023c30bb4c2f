package relstore

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// LastModifiedEntry mirrors one row of the LastModified bookkeeping table.
type LastModifiedEntry struct {
	Id        int64
	FileName  string
	TimeStamp time.Time
}

// GetLastModified looks up the recorded mtime for fileName, returning
// ok=false if no row exists yet.
func (e *Engine) GetLastModified(fileName string) (LastModifiedEntry, bool, error) {
	row := sq.Select("Id", "FileName", "TimeStamp").
		From("LastModified").
		Where(sq.Eq{"FileName": fileName}).
		RunWith(e.db).
		QueryRow()

	var entry LastModifiedEntry
	var ts string
	if err := row.Scan(&entry.Id, &entry.FileName, &ts); err != nil {
		if err == sql.ErrNoRows {
			return LastModifiedEntry{}, false, nil
		}
		return LastModifiedEntry{}, false, fmt.Errorf("query LastModified for %s: %w", fileName, err)
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return LastModifiedEntry{}, false, fmt.Errorf("parse LastModified timestamp for %s: %w", fileName, err)
	}
	entry.TimeStamp = t
	return entry, true, nil
}

// InsertLastModified records a first-seen mtime for fileName.
func (e *Engine) InsertLastModified(fileName string, mtime time.Time) error {
	_, err := sq.Insert("LastModified").
		Columns("FileName", "TimeStamp").
		Values(fileName, mtime.UTC().Format(time.RFC3339Nano)).
		RunWith(e.db).
		Exec()
	if err != nil {
		return fmt.Errorf("insert LastModified for %s: %w", fileName, err)
	}
	return nil
}

// UpdateLastModified overwrites the recorded mtime for fileName.
func (e *Engine) UpdateLastModified(fileName string, mtime time.Time) error {
	_, err := sq.Update("LastModified").
		Set("TimeStamp", mtime.UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"FileName": fileName}).
		RunWith(e.db).
		Exec()
	if err != nil {
		return fmt.Errorf("update LastModified for %s: %w", fileName, err)
	}
	return nil
}
