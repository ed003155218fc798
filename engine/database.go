package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danthegoodman1/fedb/future"
	"github.com/danthegoodman1/fedb/gologger"
	"github.com/danthegoodman1/fedb/metrics"
)

var logger = gologger.NewLogger()

type (
	// Database is the registry of named tables.
	Database struct {
		mu     sync.RWMutex
		tables map[string]*Table
		exec   future.Executor
	}

	Option func(*Database)
)

// WithExecutor sets where query results are delivered. The default starts a
// goroutine per query.
func WithExecutor(exec future.Executor) Option {
	return func(db *Database) {
		db.exec = exec
	}
}

func New(opts ...Option) *Database {
	db := &Database{
		tables: make(map[string]*Table),
		exec:   future.GoExecutor{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// SetTable builds a schema and table from cfg and rows and registers it under
// name, replacing any previous table. Nil rows means an empty table. On error
// the registry is left untouched.
func (db *Database) SetTable(name string, cfg SchemaConfig, rows []Record) error {
	schema, err := NewSchema(cfg, db)
	if err != nil {
		return fmt.Errorf("error in NewSchema for %s: %w", name, err)
	}
	if rows == nil {
		rows = []Record{}
	}
	t, err := NewTable(name, schema, rows)
	if err != nil {
		return err
	}
	t.exec = db.exec

	db.mu.Lock()
	_, replaced := db.tables[name]
	db.tables[name] = t
	db.mu.Unlock()

	metrics.TableRows.WithLabelValues(name).Set(float64(t.Len()))
	logger.Info().Str("table", name).Int("rows", t.Len()).Bool("replaced", replaced).Msg("set table")
	return nil
}

// GetTable returns the table registered under name or ErrUnknownTable.
func (db *Database) GetTable(name string) (*Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables lists registered table names in sorted order.
func (db *Database) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *Database) Executor() future.Executor {
	return db.exec
}
