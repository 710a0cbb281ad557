package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// schema describes how a table reads fields off a row and which constraints
// it enforces.
type schema[T any] struct {
	entity string
	id     func(T) string
	fields func(T) map[string]any
	unique []string

	// check runs before a row is written and may reject it.
	check func(T) error

	// restrict runs before a row is deleted and may reject it.
	restrict func(T) error
}

// table is a ports.Repository backed by a map. All tables of one Store share
// the Store's lock.
type table[T any] struct {
	mu     *sync.RWMutex
	rows   map[string]T
	schema schema[T]
}

var _ ports.Repository[domain.Author] = (*table[domain.Author])(nil)

func newTable[T any](mu *sync.RWMutex, s schema[T]) *table[T] {
	return &table[T]{mu: mu, rows: make(map[string]T), schema: s}
}

func (t *table[T]) FindOne(ctx context.Context, where ports.Criteria) (T, error) {
	var zero T

	rows, err := t.Find(ctx, where, nil, ports.Page{Limit: 1})
	if err != nil {
		return zero, err
	}

	if len(rows) == 0 {
		id, _ := where[ports.FieldID].(string)
		return zero, domain.NewNotFoundError(t.schema.entity, id)
	}

	return rows[0], nil
}

func (t *table[T]) Find(ctx context.Context, where ports.Criteria, order []ports.Order, page ports.Page) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	matched, err := t.match(where)
	if err != nil {
		return nil, err
	}

	if len(order) == 0 {
		order = []ports.Order{{Field: ports.FieldID}}
	}

	slices.SortStableFunc(matched, func(a, b T) int {
		fa, fb := t.schema.fields(a), t.schema.fields(b)
		for _, o := range order {
			c := compareValues(fa[o.Field], fb[o.Field])
			if o.Desc {
				c = -c
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})

	end := len(matched)
	if page.Limit > 0 {
		end = page.Offset + page.Limit
	}

	return lo.Slice(matched, page.Offset, end), nil
}

func (t *table[T]) Count(ctx context.Context, where ports.Criteria) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	matched, err := t.match(where)
	if err != nil {
		return 0, err
	}

	return len(matched), nil
}

func (t *table[T]) Insert(ctx context.Context, row T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.schema.id(row)
	if _, exists := t.rows[id]; exists {
		return domain.NewConflictErrorWithDetails(t.schema.entity, "duplicate id", id)
	}

	if err := t.validate(row); err != nil {
		return err
	}

	t.rows[id] = row

	return nil
}

func (t *table[T]) Save(ctx context.Context, row T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.schema.id(row)
	if _, exists := t.rows[id]; !exists {
		return domain.NewNotFoundError(t.schema.entity, id)
	}

	if err := t.validate(row); err != nil {
		return err
	}

	t.rows[id] = row

	return nil
}

func (t *table[T]) Delete(ctx context.Context, where ports.Criteria) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	matched, err := t.match(where)
	if err != nil {
		return 0, err
	}

	if t.schema.restrict != nil {
		for _, row := range matched {
			if err := t.schema.restrict(row); err != nil {
				return 0, err
			}
		}
	}

	for _, row := range matched {
		delete(t.rows, t.schema.id(row))
	}

	return int64(len(matched)), nil
}

// match returns the rows satisfying where. Callers hold the lock.
func (t *table[T]) match(where ports.Criteria) ([]T, error) {
	for field := range where {
		if _, known := t.schema.fields(*new(T))[field]; !known {
			return nil, fmt.Errorf("%s: unknown field %q", t.schema.entity, field)
		}
	}

	return lo.Filter(lo.Values(t.rows), func(row T, _ int) bool {
		fields := t.schema.fields(row)
		for field, want := range where {
			if fields[field] != want {
				return false
			}
		}

		return true
	}), nil
}

// validate enforces unique fields and the schema check. Callers hold the lock.
func (t *table[T]) validate(row T) error {
	id := t.schema.id(row)
	fields := t.schema.fields(row)

	for _, field := range t.schema.unique {
		clash := lo.SomeBy(lo.Values(t.rows), func(other T) bool {
			return t.schema.id(other) != id && t.schema.fields(other)[field] == fields[field]
		})
		if clash {
			return domain.NewConflictErrorWithDetails(t.schema.entity, "unique constraint", field)
		}
	}

	if t.schema.check != nil {
		return t.schema.check(row)
	}

	return nil
}

// get returns a row by id. Callers hold the lock.
func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return cmp.Compare(x, y)
	case int:
		y, _ := b.(int)
		return cmp.Compare(x, y)
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}
