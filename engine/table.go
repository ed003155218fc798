package engine

import (
	"fmt"

	"github.com/danthegoodman1/fedb/comparison"
	"github.com/danthegoodman1/fedb/future"
)

// Table holds validated rows and one hash index per unique field. It is never
// modified after NewTable returns; replacing data means building a new Table.
type Table struct {
	name    string
	schema  *Schema
	rows    []Record
	indexes map[string]map[any]int
	exec    future.Executor
}

// NewTable validates rows against schema and indexes them. Any failure aborts
// construction, so a Table is never partially built.
func NewTable(name string, schema *Schema, rows []Record) (*Table, error) {
	if err := schema.ValidateDataset(rows); err != nil {
		return nil, fmt.Errorf("error validating table %s: %w", name, err)
	}
	t := &Table{
		name:    name,
		schema:  schema,
		rows:    cloneRecords(rows),
		indexes: make(map[string]map[any]int),
		exec:    future.GoExecutor{},
	}
	for _, field := range schema.Unique() {
		index, err := t.addIndex(field)
		if err != nil {
			return nil, fmt.Errorf("error indexing table %s: %w", name, err)
		}
		t.indexes[field] = index
	}
	logger.Debug().Str("table", name).Int("rows", len(t.rows)).Strs("indexes", schema.Unique()).Msg("built table")
	return t, nil
}

func (t *Table) addIndex(field string) (map[any]int, error) {
	index := make(map[any]int, len(t.rows))
	for i, row := range t.rows {
		key, ok := comparison.Key(row[field])
		if !ok {
			return nil, &RowError{Row: i, Field: field, Err: fmt.Errorf("%w: unhashable value %v", ErrInvalidFieldType, row[field])}
		}
		if _, exists := index[key]; exists {
			return nil, &RowError{Row: i, Field: field, Err: fmt.Errorf("%w: %s=%v", ErrNonUniqueIndex, field, row[field])}
		}
		index[key] = i
	}
	return index, nil
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Schema() *Schema {
	return t.schema
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) HasIndex(field string) bool {
	_, ok := t.indexes[field]
	return ok
}

// GetByIndex returns a copy of the row whose unique field equals value. It
// fails with ErrNotIndexed when field has no index and ErrNotFound when no row
// carries value.
func (t *Table) GetByIndex(field string, value any) (Record, error) {
	row, err := t.lookup(field, value)
	if err != nil {
		return nil, err
	}
	return cloneRecord(row), nil
}

func (t *Table) lookup(field string, value any) (Record, error) {
	index, ok := t.indexes[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotIndexed, t.name, field)
	}
	key, ok := comparison.Key(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s=%v", ErrNotFound, t.name, field, value)
	}
	i, ok := index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s=%v", ErrNotFound, t.name, field, value)
	}
	return t.rows[i], nil
}

// Data returns a deep copy of every row in insertion order.
func (t *Table) Data() []Record {
	return cloneRecords(t.rows)
}

// Query starts a query on the table:
//
//	Query()                  every row
//	Query(field)             every row
//	Query(field, value)      field = value
//	Query(field, op, value)  field op value
//
// A malformed call is reported by the returned query's Err.
func (t *Table) Query(args ...any) *Query {
	q := newQuery(t)
	switch len(args) {
	case 0, 1:
		return q
	case 2:
		field, ok := args[0].(string)
		if !ok {
			return q.fail(fmt.Errorf("%w: field must be a string, got %T", ErrInvalidQuery, args[0]))
		}
		return q.Where(field, comparison.OpEq, args[1])
	default:
		field, ok := args[0].(string)
		if !ok {
			return q.fail(fmt.Errorf("%w: field must be a string, got %T", ErrInvalidQuery, args[0]))
		}
		op, ok := args[1].(string)
		if !ok {
			return q.fail(fmt.Errorf("%w: %v", comparison.ErrUnsupportedOperator, args[1]))
		}
		return q.Where(field, op, args[2])
	}
}
