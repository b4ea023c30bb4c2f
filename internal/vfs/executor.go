package vfs

import (
	"strings"

	"github.com/mvp-joe/csvfs/internal/namespace"
)

// executeQueryFile implements the Query Executor (§4.6): content is split on
// ';', each non-empty statement runs in order against the Backend, and the
// last statement's result (or a failure marker) is stored under the query's
// stem for /sql/results/<stem>.csv to serve.
func (fs *FS) executeQueryFile(path, content string) {
	stem := namespace.QueryName(path)

	statements := strings.Split(content, ";")

	var outcome *queryOutcome
	for _, raw := range statements {
		stmt := strings.TrimSpace(strings.Trim(raw, "\x00"))
		if stmt == "" {
			continue
		}
		result := fs.backend.Query(stmt)
		outcome = &queryOutcome{Result: result}
	}

	if outcome == nil {
		return
	}

	fs.mu.Lock()
	fs.queryResults[stem] = outcome
	fs.mu.Unlock()

	fs.cache.Invalidate("/sql/results/" + stem + ".csv")
	fs.bump()
}
