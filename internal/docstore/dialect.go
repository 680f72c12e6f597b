package docstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Dialect captures the SQL differences between the databases [SQLStore] supports.
type Dialect interface {
	// Name returns the database/sql driver name.
	Name() string
	// Rebind rewrites "?" placeholders into the dialect's parameter syntax.
	Rebind(query string) string
	// FieldEquals returns a predicate comparing a top-level body field to a value, with "?" placeholders.
	FieldEquals(field string, value any) (string, []any)
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation(err error) bool
}

// SQLite is the [Dialect] for github.com/mattn/go-sqlite3, using the JSON1 json_extract function.
var SQLite Dialect = sqliteDialect{}

// Postgres is the [Dialect] for the pgx stdlib driver over a JSONB body column.
var Postgres Dialect = postgresDialect{}

// DialectFor returns the [Dialect] registered for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case shared.DriverSQLite:
		return SQLite, nil
	case shared.DriverPostgres:
		return Postgres, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedDriver, driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return shared.DriverSQLite }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) FieldEquals(field string, value any) (string, []any) {
	return "json_extract(body, ?) = ?", []any{"$." + field, sqlValue(value)}
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return shared.DriverPostgres }

func (postgresDialect) Rebind(query string) string {
	return shared.Rebind(shared.DriverPostgres, query)
}

// FieldEquals compares the text projection of the field, so values are bound as text.
func (postgresDialect) FieldEquals(field string, value any) (string, []any) {
	return "body->>? = ?", []any{field, textValue(value)}
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// sqlValue converts a document value into something database/sql can bind.
func sqlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	default:
		return v
	}
}

// textValue renders a value the way Postgres' ->> operator renders JSON scalars.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
