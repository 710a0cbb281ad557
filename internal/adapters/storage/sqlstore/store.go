// Package sqlstore stores authors and quotes in SQLite or PostgreSQL through
// database/sql. Queries are built with squirrel; the two dialects differ only
// in placeholders, driver and error classification.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const (
	authorTable = "author"
	quoteTable  = "quote"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS author (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		quote_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS quote (
		id VARCHAR(36) PRIMARY KEY,
		text TEXT NOT NULL,
		author_id VARCHAR(36) NOT NULL REFERENCES author(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quote_author_id ON quote(author_id)`,
}

// Config selects and tunes the database.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is a SQL-backed ports.Storage.
type Store struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	authors *repository[domain.Author]
	quotes  *repository[domain.Quote]
}

var _ ports.Storage = (*Store)(nil)

// Open connects to the configured database, verifies it is reachable and
// creates the tables if they do not exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.sqlDriver, d.prepareDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.name, err)
	}

	configurePool(db, d, cfg)

	s := newStore(db, d)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.name, err)
	}

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func configurePool(db *sql.DB, d dialect, cfg Config) {
	// SQLite allows one writer at a time. A single connection queues
	// writers instead of failing them with SQLITE_BUSY, and keeps an
	// in-memory database alive across calls.
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		return
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func newStore(db *sql.DB, d dialect) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}

	s.authors = &repository[domain.Author]{store: s, m: mapping[domain.Author]{
		table:   authorTable,
		entity:  "author",
		columns: []string{ports.FieldID, ports.FieldName, ports.FieldQuoteCount},
		values: func(a domain.Author) []any {
			return []any{a.ID(), a.Name(), a.QuoteCount()}
		},
		scan: func(row rowScanner) (domain.Author, error) {
			var (
				id, name string
				count    int
			)

			if err := row.Scan(&id, &name, &count); err != nil {
				return domain.Author{}, err
			}

			return domain.RestoreAuthor(id, name, count), nil
		},
	}}

	s.quotes = &repository[domain.Quote]{store: s, m: mapping[domain.Quote]{
		table:   quoteTable,
		entity:  "quote",
		columns: []string{ports.FieldID, ports.FieldText, ports.FieldAuthorID},
		values: func(q domain.Quote) []any {
			return []any{q.ID(), q.Text(), q.AuthorID()}
		},
		scan: func(row rowScanner) (domain.Quote, error) {
			var id, text, authorID string

			if err := row.Scan(&id, &text, &authorID); err != nil {
				return domain.Quote{}, err
			}

			return domain.NewQuote(id, text, authorID), nil
		},
	}}

	return s
}

func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %s: %w", firstLine(stmt), err)
		}
	}

	return nil
}

// Authors returns the author repository.
func (s *Store) Authors() ports.AuthorRepository { return s.authors }

// Quotes returns the quote repository.
func (s *Store) Quotes() ports.QuoteRepository { return s.quotes }

type txKey struct{ store *Store }

// runner is the subset of *sql.DB and *sql.Tx the repositories use.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) runner(ctx context.Context) runner {
	if tx, ok := ctx.Value(txKey{s}).(*sql.Tx); ok {
		return tx
	}

	return s.db
}

// WithinTx runs fn in a transaction, committing when fn returns nil. A call
// made while a transaction is already open joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{s}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{s}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "storage" }

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewUnavailableError(s.dialect.name, err.Error())
	}

	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stmt), "\n")
	return line
}
