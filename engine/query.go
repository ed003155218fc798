package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/fedb/comparison"
	"github.com/danthegoodman1/fedb/future"
	"github.com/danthegoodman1/fedb/gologger"
	"github.com/danthegoodman1/fedb/metrics"
	"github.com/danthegoodman1/fedb/ordering"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/rs/zerolog"
)

// JoinKey is the child table field matched against the ids stored in a join field.
const JoinKey = "id"

type (
	// Query accumulates predicates, an ordering and an optional join over one
	// table. Builder methods chain; the first misuse is kept and reported by Err
	// and Execute, so an invalid query never produces a future.
	Query struct {
		id         string
		table      *Table
		comparison *comparison.Comparison
		and        *comparison.Comparison
		or         *comparison.Comparison
		ordering   *ordering.Ordering
		join       *join
		err        error
	}

	join struct {
		field string
		child *Query
	}
)

func newQuery(t *Table) *Query {
	return &Query{
		id:    utils.GenRandomID("q_"),
		table: t,
	}
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Err reports the first builder error, if any.
func (q *Query) Err() error {
	return q.err
}

func (q *Query) ID() string {
	return q.id
}

func (q *Query) Table() *Table {
	return q.table
}

// Where sets the primary comparison. Without a value, the value passed to
// Execute is used.
func (q *Query) Where(field, operator string, value ...any) *Query {
	if q.err != nil {
		return q
	}
	if q.comparison != nil {
		return q.fail(fmt.Errorf("%w: where", ErrAlreadySet))
	}
	c, err := comparison.New(field, operator, value...)
	if err != nil {
		return q.fail(err)
	}
	q.comparison = c
	return q
}

// And adds a comparison that must hold together with the primary one.
func (q *Query) And(field, operator string, value ...any) *Query {
	if q.err != nil {
		return q
	}
	if q.and != nil {
		return q.fail(fmt.Errorf("%w: and", ErrAlreadySet))
	}
	if q.or != nil {
		return q.fail(ErrMixedPredicates)
	}
	c, err := comparison.New(field, operator, value...)
	if err != nil {
		return q.fail(err)
	}
	q.and = c
	return q
}

// Or adds a comparison that may hold instead of the primary one.
func (q *Query) Or(field, operator string, value ...any) *Query {
	if q.err != nil {
		return q
	}
	if q.or != nil {
		return q.fail(fmt.Errorf("%w: or", ErrAlreadySet))
	}
	if q.and != nil {
		return q.fail(ErrMixedPredicates)
	}
	c, err := comparison.New(field, operator, value...)
	if err != nil {
		return q.fail(err)
	}
	q.or = c
	return q
}

// OrderBy sorts the final result by field, ascending unless a direction is given.
func (q *Query) OrderBy(field string, direction ...string) *Query {
	if q.err != nil {
		return q
	}
	if q.ordering != nil {
		return q.fail(fmt.Errorf("%w: order by", ErrAlreadySet))
	}
	dir := ""
	if len(direction) > 0 {
		dir = direction[0]
	}
	o, err := ordering.New(field, dir)
	if err != nil {
		return q.fail(err)
	}
	q.ordering = o
	return q
}

// LeftJoin replaces the ids held in field with the matching rows of the target
// table. The target is tableName when given, otherwise the one the schema
// declares for field.
func (q *Query) LeftJoin(field string, db TableResolver, tableName ...string) *Query {
	if q.err != nil {
		return q
	}
	if q.join != nil {
		return q.fail(fmt.Errorf("%w: join", ErrAlreadySet))
	}
	spec, ok := q.table.schema.Spec(field)
	if !ok || spec.Type != TableType {
		return q.fail(fmt.Errorf("%w: %s is not a table field", ErrJoinNotSupported, field))
	}
	if spec.Nested {
		return q.fail(fmt.Errorf("%w: %s holds nested rows", ErrJoinNotSupported, field))
	}
	var target string
	if len(tableName) > 0 && tableName[0] != "" {
		target = tableName[0]
	} else {
		var err error
		if target, err = q.table.schema.Target(field); err != nil {
			return q.fail(err)
		}
	}
	child, err := db.GetTable(target)
	if err != nil {
		return q.fail(err)
	}
	nested := child.Query().Where(JoinKey, comparison.OpEq)
	if nested.err != nil {
		return q.fail(nested.err)
	}
	q.join = &join{field: field, child: nested}
	return q
}

// Execute runs the query and returns a future holding the result. The result
// is computed before Execute returns but the future never resolves before then.
// Returned rows are deep copies. A lookup miss, whether on the indexed path or
// while resolving join ids, contributes no row rather than an error.
func (q *Query) Execute(value ...any) (*future.Future[[]Record], error) {
	if q.err != nil {
		return nil, q.err
	}
	var v any
	if len(value) > 0 {
		v = value[0]
	}

	rows := q.run(v)

	gate := make(chan struct{})
	defer close(gate)
	f, err := future.Deliver(q.table.exec, gate, rows)
	if err != nil {
		return nil, fmt.Errorf("error in future.Deliver: %w", err)
	}
	return f, nil
}

// Collect executes the query and waits for its result. ctx's logger is tagged
// with the query id.
func (q *Query) Collect(ctx context.Context, value ...any) ([]Record, error) {
	ctx = gologger.WithQueryID(ctx, q.id)
	f, err := q.Execute(value...)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("query rejected")
		return nil, err
	}
	rows, err := f.Await(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("gave up waiting for query result")
		return nil, err
	}
	return rows, nil
}

// Plan names the path Execute takes: all, index or scan.
func (q *Query) Plan() string {
	switch {
	case q.comparison == nil && q.and == nil && q.or == nil:
		return metrics.PathAll
	case q.and == nil && q.or == nil &&
		q.comparison.IsSingleOperation() &&
		q.table.HasIndex(q.comparison.Field()):
		return metrics.PathIndex
	}
	return metrics.PathScan
}

func (q *Query) run(value any) []Record {
	start := time.Now()
	plan := q.Plan()

	out := []Record{}
	switch plan {
	case metrics.PathAll:
		out = cloneRecords(q.table.rows)
	case metrics.PathIndex:
		if row, err := q.table.lookup(q.comparison.Field(), q.comparison.Value(value)); err == nil {
			out = append(out, cloneRecord(row))
		}
	default:
		primary := q.comparison
		if primary == nil {
			primary = comparison.Wildcard()
		}
		for _, row := range q.table.rows {
			keep := primary.Match(row, value)
			if q.and != nil {
				keep = keep && q.and.Match(row, value)
			} else if q.or != nil {
				keep = keep || q.or.Match(row, value)
			}
			if keep {
				out = append(out, cloneRecord(row))
			}
		}
	}

	if q.join != nil {
		q.join.resolve(out)
	}
	if q.ordering != nil {
		ordering.Sort(q.ordering, out)
	}

	metrics.QueriesTotal.WithLabelValues(q.table.name, plan).Inc()
	metrics.QueryDuration.WithLabelValues(q.table.name).Observe(time.Since(start).Seconds())
	logger.Debug().Str("queryID", q.id).Str("table", q.table.name).Str("plan", plan).Int("rows", len(out)).Msg("executed query")
	return out
}

// resolve swaps each row's id list for the child rows, keeping id order.
func (j *join) resolve(rows []Record) {
	child := j.child.table.name
	for _, row := range rows {
		ids := listItems(row[j.field])
		resolved := make([]any, 0, len(ids))
		for _, id := range ids {
			matches := j.child.run(id)
			metrics.JoinLookupsTotal.WithLabelValues(child, fmt.Sprint(len(matches) > 0)).Inc()
			for _, m := range matches {
				resolved = append(resolved, m)
			}
		}
		row[j.field] = resolved
	}
}

func (q *Query) String() string {
	s := fmt.Sprintf("select from %s", q.table.name)
	if q.comparison != nil {
		s += " where " + q.comparison.String()
	}
	if q.and != nil {
		s += " and " + q.and.String()
	}
	if q.or != nil {
		s += " or " + q.or.String()
	}
	if q.join != nil {
		s += fmt.Sprintf(" join %s on %s", q.join.child.table.name, q.join.field)
	}
	if q.ordering != nil {
		s += fmt.Sprintf(" order by %s %s", q.ordering.Field(), q.ordering.Direction())
	}
	return s
}
