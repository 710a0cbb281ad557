package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// Driver names accepted in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures what differs between the supported databases.
type dialect struct {
	name        string
	sqlDriver   string
	placeholder sq.PlaceholderFormat

	// isConstraint reports whether err is an integrity constraint violation.
	isConstraint func(err error) bool

	// prepareDSN adjusts a configured DSN before it is opened.
	prepareDSN func(dsn string) string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:         DriverSQLite,
		sqlDriver:    "sqlite",
		placeholder:  sq.Question,
		isConstraint: isSQLiteConstraint,
		prepareDSN:   sqliteDSN,
	},
	DriverPostgres: {
		name:         DriverPostgres,
		sqlDriver:    "pgx",
		placeholder:  sq.Dollar,
		isConstraint: isPostgresConstraint,
		prepareDSN:   func(dsn string) string { return dsn },
	},
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

// isPostgresConstraint matches SQLSTATE class 23 (integrity constraint
// violation): unique_violation, foreign_key_violation and friends.
func isPostgresConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	return false
}

// sqliteDSN turns on foreign key enforcement and a busy timeout unless the
// DSN already sets them.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "file:quotes.db"
	}

	pragmas := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}

	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}

	if len(pragmas) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(pragmas, "&")
}

// classify maps a driver error onto the domain error kinds the repositories
// promise.
func (d dialect) classify(entity, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.NewNotFoundError(entity, "")
	case d.isConstraint(err):
		return domain.NewConflictErrorWithDetails(entity, "constraint violation", err.Error())
	default:
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}
}
