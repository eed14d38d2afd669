package source

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/poiesic/logembed/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open opens and pings a database for the given dialect.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	if _, err := ParseDialect(string(dialect)); err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Source reads failed build reports from a database.
type Source struct {
	db       *sql.DB
	dialect  Dialect
	lookback string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLookback sets how far back reports are read.
// Default is DefaultLookback.
func WithLookback(lookback string) Option {
	return func(s *Source) {
		if lookback != "" {
			s.lookback = lookback
		}
	}
}

// WithClock overrides the current time used for SQLite cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a source over an open database.
// The caller retains ownership of db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Source {
	s := &Source{
		db:       db,
		dialect:  dialect,
		lookback: DefaultLookback,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "source", "dialect", string(dialect))
	return s
}

// Blobs streams reports ordered by snapshot.
//
// A row with a NULL identifier, or one that cannot be scanned, is yielded
// as a *core.MalformedInputError so the consumer can skip it. Query and
// cursor failures are yielded as plain errors and end the stream.
func (s *Source) Blobs(ctx context.Context) iter.Seq2[*core.LogBlob, error] {
	return func(yield func(*core.LogBlob, error) bool) {
		query, args, err := s.dialect.query(s.lookback, s.now())
		if err != nil {
			yield(nil, err)
			return
		}

		s.logger.Debug("querying build reports", "lookback", s.lookback)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query build reports: %w", err))
			return
		}
		defer rows.Close()

		position := 0
		for rows.Next() {
			blob, err := scanBlob(rows)
			if err != nil {
				err = &core.MalformedInputError{Position: position, Err: err}
			}
			position++
			if !yield(blob, err) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read build reports: %w", err))
			return
		}
		s.logger.Debug("finished reading build reports", "rows", position)
	}
}

func scanBlob(rows *sql.Rows) (*core.LogBlob, error) {
	var (
		sysname, status, stage, log, branch, commit sql.NullString
		snapshot                                    any
	)
	if err := rows.Scan(&sysname, &snapshot, &status, &stage, &log, &branch, &commit); err != nil {
		return nil, err
	}

	blob := &core.LogBlob{
		SysName:  sysname.String,
		Snapshot: formatSnapshot(snapshot),
		Status:   status.String,
		Stage:    stage.String,
		Branch:   branch.String,
		Commit:   commit.String,
		Log:      log.String,
	}
	if err := core.ValidateLogBlob(blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// formatSnapshot renders a snapshot column the way reports are keyed.
func formatSnapshot(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(SnapshotLayout)
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
