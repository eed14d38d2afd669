package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the SQL flavor and driver used to read reports.
type Dialect string

const (
	// Postgres reads through github.com/lib/pq.
	Postgres Dialect = "postgres"
	// SQLite reads through modernc.org/sqlite.
	SQLite Dialect = "sqlite"
)

// DefaultLookback is how far back reports are read by default.
const DefaultLookback = "6 months"

// SnapshotLayout is the text form of snapshot timestamps.
const SnapshotLayout = "2006-01-02 15:04:05"

const selectColumns = `
	SELECT
		sysname,
		snapshot,
		status,
		stage,
		log,
		branch,
		git_head_ref AS "commit"
	FROM build_status
	WHERE stage != 'OK'
	  AND build_status.report_time IS NOT NULL`

// ParseDialect parses a dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case Postgres, SQLite:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// query returns the report query and its arguments.
// Postgres evaluates the lookback interval server-side; SQLite has no
// interval type, so the cutoff is computed here.
func (d Dialect) query(lookback string, now time.Time) (string, []any, error) {
	switch d {
	case Postgres:
		return selectColumns + `
	  AND snapshot > current_date - $1::interval
	ORDER BY snapshot ASC`, []any{lookback}, nil
	case SQLite:
		cutoff, err := Cutoff(lookback, now)
		if err != nil {
			return "", nil, err
		}
		return selectColumns + `
	  AND snapshot > ?
	ORDER BY snapshot ASC`, []any{cutoff.Format(SnapshotLayout)}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}

// Cutoff subtracts a lookback period such as "6 months" or "2 days" from now.
// Supported units are hours, days, weeks, months and years, singular or plural.
func Cutoff(lookback string, now time.Time) (time.Time, error) {
	fields := strings.Fields(lookback)
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidLookback, lookback)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidLookback, lookback)
	}

	switch strings.TrimSuffix(strings.ToLower(fields[1]), "s") {
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), nil
	case "day":
		return now.AddDate(0, 0, -n), nil
	case "week":
		return now.AddDate(0, 0, -7*n), nil
	case "month", "mon":
		return now.AddDate(0, -n, 0), nil
	case "year":
		return now.AddDate(-n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown unit in %q", ErrInvalidLookback, lookback)
	}
}
