package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapping binds a row shape to a table. The first column is the primary key.
type mapping[T any] struct {
	table   string
	entity  string
	columns []string
	values  func(T) []any
	scan    func(rowScanner) (T, error)
}

// repository implements ports.Repository over one table.
type repository[T any] struct {
	store *Store
	m     mapping[T]
}

func (r *repository[T]) FindOne(ctx context.Context, where ports.Criteria) (T, error) {
	var zero T

	if err := r.checkFields(where); err != nil {
		return zero, err
	}

	query, args, err := r.store.builder.
		Select(r.m.columns...).
		From(r.m.table).
		Where(sq.Eq(where)).
		Limit(1).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("building %s query: %w", r.m.entity, err)
	}

	row, err := r.m.scan(r.store.runner(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, r.store.dialect.classify(r.m.entity, "find", err)
	}

	return row, nil
}

func (r *repository[T]) Find(ctx context.Context, where ports.Criteria, order []ports.Order, page ports.Page) ([]T, error) {
	if err := r.checkFields(where); err != nil {
		return nil, err
	}

	b := r.store.builder.
		Select(r.m.columns...).
		From(r.m.table).
		Where(sq.Eq(where))

	if len(order) == 0 {
		order = []ports.Order{{Field: r.m.columns[0]}}
	}

	for _, o := range order {
		if !slices.Contains(r.m.columns, o.Field) {
			return nil, fmt.Errorf("%s: unknown order field %q", r.m.entity, o.Field)
		}

		dir := " ASC"
		if o.Desc {
			dir = " DESC"
		}

		b = b.OrderBy(o.Field + dir)
	}

	switch {
	case page.Limit > 0:
		b = b.Limit(uint64(page.Limit))
	case page.Offset > 0:
		// SQLite rejects OFFSET without LIMIT.
		b = b.Limit(math.MaxInt64)
	}

	if page.Offset > 0 {
		b = b.Offset(uint64(page.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", r.m.entity, err)
	}

	rows, err := r.store.runner(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.store.dialect.classify(r.m.entity, "find", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]T, 0)

	for rows.Next() {
		row, err := r.m.scan(rows)
		if err != nil {
			return nil, r.store.dialect.classify(r.m.entity, "scan", err)
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, r.store.dialect.classify(r.m.entity, "iterate", err)
	}

	return result, nil
}

func (r *repository[T]) Count(ctx context.Context, where ports.Criteria) (int, error) {
	if err := r.checkFields(where); err != nil {
		return 0, err
	}

	query, args, err := r.store.builder.
		Select("COUNT(*)").
		From(r.m.table).
		Where(sq.Eq(where)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building %s count: %w", r.m.entity, err)
	}

	var n int
	if err := r.store.runner(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, r.store.dialect.classify(r.m.entity, "count", err)
	}

	return n, nil
}

func (r *repository[T]) Insert(ctx context.Context, row T) error {
	query, args, err := r.store.builder.
		Insert(r.m.table).
		Columns(r.m.columns...).
		Values(r.m.values(row)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("building %s insert: %w", r.m.entity, err)
	}

	if _, err := r.store.runner(ctx).ExecContext(ctx, query, args...); err != nil {
		return r.store.dialect.classify(r.m.entity, "insert", err)
	}

	return nil
}

func (r *repository[T]) Save(ctx context.Context, row T) error {
	values := r.m.values(row)

	set := make(map[string]any, len(r.m.columns)-1)
	for i, col := range r.m.columns[1:] {
		set[col] = values[i+1]
	}

	query, args, err := r.store.builder.
		Update(r.m.table).
		SetMap(set).
		Where(sq.Eq{r.m.columns[0]: values[0]}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building %s update: %w", r.m.entity, err)
	}

	res, err := r.store.runner(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return r.store.dialect.classify(r.m.entity, "update", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return r.store.dialect.classify(r.m.entity, "update", err)
	}

	if n == 0 {
		return r.store.dialect.classify(r.m.entity, "update", sql.ErrNoRows)
	}

	return nil
}

func (r *repository[T]) Delete(ctx context.Context, where ports.Criteria) (int64, error) {
	if err := r.checkFields(where); err != nil {
		return 0, err
	}

	query, args, err := r.store.builder.
		Delete(r.m.table).
		Where(sq.Eq(where)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building %s delete: %w", r.m.entity, err)
	}

	res, err := r.store.runner(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.store.dialect.classify(r.m.entity, "delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.store.dialect.classify(r.m.entity, "delete", err)
	}

	return n, nil
}

// checkFields rejects criteria naming columns the table does not have.
// Column names end up in SQL text, so only known names may pass.
func (r *repository[T]) checkFields(where ports.Criteria) error {
	for field := range where {
		if !slices.Contains(r.m.columns, field) {
			return fmt.Errorf("%s: unknown field %q", r.m.entity, field)
		}
	}

	return nil
}
