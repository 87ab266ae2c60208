package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"salesystem/m/internal/config"
	"salesystem/m/internal/logging"
)

// Store owns the single database handle used by the POS system.
//
// A Store is not safe for concurrent use; callers serialize access. When no
// connection can be established the store stays usable and every operation
// reports a failure result instead of panicking or returning an error.
type Store struct {
	cfg     config.Config
	dialect Dialect
	db      *sqlx.DB
}

// New constructs a Store and makes the initial connection attempt.
func New(cfg config.Config) *Store {
	s := &Store{cfg: cfg}
	s.Connect()
	return s
}

// Connect (re)opens the database handle. On failure the error is logged, the
// handle is left unset and false is returned.
func (s *Store) Connect() bool {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	dialect, err := LookupDialect(s.cfg.Driver)
	if err != nil {
		s.logger().Error().Err(err).Msg("failed to connect to database")
		return false
	}
	s.dialect = dialect

	db, err := sqlx.Connect(dialect.DriverName, s.cfg.DSN())
	if err != nil {
		s.logger().Error().Err(err).Str("driver", dialect.Name).Msg("failed to connect to database")
		return false
	}
	db.SetMaxOpenConns(1)
	s.db = db

	s.logger().Info().Str("driver", dialect.Name).Str("database", s.cfg.Name).Msg("database connected")
	return true
}

// Conn returns the live handle, reconnecting once if it is missing or dead.
// The result may be nil.
func (s *Store) Conn() *sqlx.DB {
	if s.Ping() {
		return s.db
	}
	s.Connect()
	return s.db
}

// Ping reports whether the current handle is live without reconnecting.
func (s *Store) Ping() bool {
	return s.db != nil && s.db.Ping() == nil
}

// Dialect returns the dialect of the configured driver.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close releases the handle. Calling it more than once is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Query runs a read statement.
func (s *Store) Query(query string, args ...any) Result {
	return s.ExecuteQuery(Read, query, args...)
}

// Exec runs a write statement and commits it.
func (s *Store) Exec(query string, args ...any) Result {
	return s.ExecuteQuery(Write, query, args...)
}

// ExecuteQuery runs query with args bound positionally. Placeholders are
// written as ? and rebound for the driver.
func (s *Store) ExecuteQuery(kind StatementKind, query string, args ...any) Result {
	db := s.Conn()
	if db == nil {
		return failed(ErrNoConnection)
	}

	switch kind {
	case Read:
		cols, rows, err := read(db, query, args)
		if err != nil {
			return s.fail(query, err)
		}
		return Result{Kind: KindRows, Columns: cols, Rows: rows}
	case Write:
		n, err := write(db, []Statement{{Query: query, Args: args}})
		if err != nil {
			return s.fail(query, err)
		}
		return Result{Kind: KindSuccess, RowsAffected: n}
	default:
		return s.fail(query, fmt.Errorf("unknown statement kind %d", kind))
	}
}

// ExecBatch runs several write statements in one transaction. Nothing is
// committed unless every statement succeeds.
func (s *Store) ExecBatch(stmts ...Statement) Result {
	db := s.Conn()
	if db == nil {
		return failed(ErrNoConnection)
	}
	n, err := write(db, stmts)
	if err != nil {
		return s.fail("batch", err)
	}
	return Result{Kind: KindSuccess, RowsAffected: n}
}

// SelectInto scans a read statement into dest, a pointer to a slice of
// structs tagged with db column names. On success the result kind is
// KindRows and Rows is left empty.
func (s *Store) SelectInto(dest any, query string, args ...any) Result {
	db := s.Conn()
	if db == nil {
		return failed(ErrNoConnection)
	}
	if err := db.Select(dest, db.Rebind(query), args...); err != nil {
		return s.fail(query, err)
	}
	return Result{Kind: KindRows}
}

func (s *Store) fail(query string, err error) Result {
	s.logger().Error().Err(err).Str("query", query).Msg("query error")
	return failed(err)
}

func read(db *sqlx.DB, query string, args []any) ([]string, []Record, error) {
	rows, err := db.Queryx(db.Rebind(query), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}

	records := make([]Record, 0)
	for rows.Next() {
		rec := make(map[string]any, len(cols))
		if err := rows.MapScan(rec); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		for k, v := range rec {
			if b, ok := v.([]byte); ok {
				rec[k] = string(b)
			}
		}
		records = append(records, Record(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	return cols, records, nil
}

func write(db *sqlx.DB, stmts []Statement) (int64, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var affected int64
	for _, st := range stmts {
		res, err := tx.Exec(tx.Rebind(st.Query), st.Args...)
		if err != nil {
			return 0, fmt.Errorf("exec: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return affected, nil
}

// logger resolves the component logger on each call so a logger installed
// by logging.Setup after New still applies.
func (s *Store) logger() *zerolog.Logger {
	l := logging.Get("database")
	return &l
}
