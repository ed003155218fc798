package datasource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/utils"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Drivers lists the database/sql drivers SQLSource can open.
var Drivers = []string{"sqlite", "mysql", "postgres"}

// SQLSource runs a query through database/sql and turns each result row into a
// record keyed by column name. Columns listed in JSONColumns hold JSON text
// (typically id lists for Table fields) and are decoded.
type SQLSource struct {
	Driver      string
	DSN         string
	Query       string
	Args        []any
	JSONColumns []string
}

func (s *SQLSource) Rows(ctx context.Context) ([]engine.Record, error) {
	if !utils.ContainsString(Drivers, s.Driver) {
		return nil, fmt.Errorf("unsupported sql driver %q", s.Driver)
	}
	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.Query, s.Args...)
	if err != nil {
		return nil, fmt.Errorf("error in db.QueryContext: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error in rows.Columns: %w", err)
	}

	out := []engine.Record{}
	for rows.Next() {
		valPtrs := make([]interface{}, len(columns))
		vals := make([]interface{}, len(columns))
		for i := range columns {
			valPtrs[i] = &vals[i]
		}
		if err := rows.Scan(valPtrs...); err != nil {
			return nil, fmt.Errorf("error in rows.Scan: %w", err)
		}
		rec, err := buildRecord(columns, vals, s.JSONColumns)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in rows.Next: %w", err)
	}
	logger.Debug().Str("driver", s.Driver).Int("rows", len(out)).Msg("read sql source")
	return out, nil
}

func buildRecord(columns []string, vals []any, jsonColumns []string) (engine.Record, error) {
	rec := make(engine.Record, len(columns))
	for i, col := range columns {
		v := normalizeValue(vals[i])
		if utils.ContainsString(jsonColumns, col) {
			decoded, err := decodeJSONColumn(v)
			if err != nil {
				return nil, fmt.Errorf("error decoding column %s: %w", col, err)
			}
			v = decoded
		}
		rec[col] = v
	}
	return rec, nil
}

// normalizeValue maps driver values onto the scalar kinds the engine validates:
// numbers, strings and lists.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return v
		}
		if s, ok := dv.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return normalizeValue(dv)
	}
	return v
}

func decodeJSONColumn(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
