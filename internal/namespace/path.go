// Package namespace classifies virtual paths into the closed set of object
// kinds the filesystem exposes. Classification is a pure function of the
// path string; it holds no state and performs no I/O.
package namespace

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Kind is one of the object kinds the virtual namespace resolves to.
type Kind int

const (
	Unknown Kind = iota
	Directory
	StatsFile
	PaginatedCSVFile
	CSVFile
	PaginatedLeafDirectory
	PaginatedDirectory
	QueryFile
	ResultFile
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case StatsFile:
		return "stats_file"
	case PaginatedCSVFile:
		return "paginated_csv_file"
	case CSVFile:
		return "csv_file"
	case PaginatedLeafDirectory:
		return "paginated_leaf_directory"
	case PaginatedDirectory:
		return "paginated_directory"
	case QueryFile:
		return "query_file"
	case ResultFile:
		return "result_file"
	default:
		return "unknown"
	}
}

// pageRegexp captures (stem, a, b) out of a basename like "people.0-2999.csv"
// or, for a leaf directory entry, "people.0-2999" with no extension.
var pageRegexp = regexp.MustCompile(`^(.+)\.(\d+)-(\d+)(?:\.csv)?$`)

var staticDirs = map[string]bool{
	"/":             true,
	"/data":         true,
	"/sql":          true,
	"/sql/queries":  true,
	"/sql/results":  true,
	"/stats":        true,
	"/schemas":      true,
}

// Classify returns the object kind for the given virtual absolute path.
// Rules are evaluated top-to-bottom; the first match wins. Classify is
// total: every input maps to exactly one Kind (Unknown is a valid result).
func Classify(p string) Kind {
	clean := cleanPath(p)

	if staticDirs[clean] {
		return Directory
	}

	if strings.HasPrefix(clean, "/stats/") && strings.HasSuffix(clean, ".json") {
		return StatsFile
	}

	if strings.HasPrefix(clean, "/data/") && strings.HasSuffix(clean, ".csv") {
		base := path.Base(clean)
		if isPaginatedBasename(base) {
			return PaginatedCSVFile
		}
		return CSVFile
	}

	if strings.HasPrefix(clean, "/data/paged_") {
		base := path.Base(clean)
		if isPaginatedBasename(base) {
			return PaginatedLeafDirectory
		}
		return PaginatedDirectory
	}

	if strings.HasPrefix(clean, "/sql/queries/") && strings.HasSuffix(clean, ".sql") {
		return QueryFile
	}

	if strings.HasPrefix(clean, "/sql/results/") && strings.HasSuffix(clean, ".csv") {
		return ResultFile
	}

	return Unknown
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func isPaginatedBasename(base string) bool {
	return pageRegexp.MatchString(base)
}

// ParsePage extracts (stem, a, b) from a pagination-shaped basename such as
// "people.0-2999.csv" or "people.0-2999". ok is false if base does not match
// the pagination grammar.
func ParsePage(base string) (stem string, a, b int, ok bool) {
	m := pageRegexp.FindStringSubmatch(base)
	if m == nil {
		return "", 0, 0, false
	}
	av, err1 := strconv.Atoi(m[2])
	bv, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return m[1], av, bv, true
}

// TableFromDataPath extracts the mirror table name from a csv_file or
// paginated_csv_file path (e.g. "/data/people.csv" -> "people",
// "/data/paged_big/big.0-2999.csv" -> "big").
func TableFromDataPath(p string) string {
	base := path.Base(cleanPath(p))
	base = strings.TrimSuffix(base, ".csv")
	if stem, _, _, ok := ParsePage(base); ok {
		return stem
	}
	return base
}

// TableFromPagedDir extracts the mirror table name from a paged_<T>
// directory path, e.g. "/data/paged_big" -> "big".
func TableFromPagedDir(p string) string {
	base := path.Base(cleanPath(p))
	return strings.TrimPrefix(base, "paged_")
}

// QueryName extracts the query name from a query_file or result_file path,
// e.g. "/sql/queries/q1.sql" -> "q1", "/sql/results/q1.csv" -> "q1".
func QueryName(p string) string {
	base := path.Base(cleanPath(p))
	base = strings.TrimSuffix(base, ".sql")
	base = strings.TrimSuffix(base, ".csv")
	return base
}

// TableFromStatsPath extracts the table name (or "global") from a stats
// file path, e.g. "/stats/people.json" -> "people".
func TableFromStatsPath(p string) string {
	base := path.Base(cleanPath(p))
	return strings.TrimSuffix(base, ".json")
}
