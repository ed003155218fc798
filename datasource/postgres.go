package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/danthegoodman1/fedb/crdb"
	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresSource reads rows over the shared CRDB pool in a read only
// transaction, retrying transient failures.
type PostgresSource struct {
	Query       string
	Args        []any
	JSONColumns []string
	Timeout     time.Duration
}

func (s *PostgresSource) Rows(ctx context.Context) ([]engine.Record, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = time.Second * 15
	}

	var out []engine.Record
	err := utils.ReliableExec(ctx, crdb.PGPool, timeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		return crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
			out = []engine.Record{}
			rows, err := tx.Query(ctx, s.Query, s.Args...)
			if err != nil {
				return fmt.Errorf("error in tx.Query: %w", err)
			}
			defer rows.Close()

			fds := rows.FieldDescriptions()
			columns := make([]string, len(fds))
			for i, fd := range fds {
				columns[i] = string(fd.Name)
			}
			for rows.Next() {
				vals, err := rows.Values()
				if err != nil {
					return fmt.Errorf("error in rows.Values: %w", err)
				}
				rec, err := buildRecord(columns, vals, s.JSONColumns)
				if err != nil {
					return utils.PermError(err.Error())
				}
				out = append(out, rec)
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return out, nil
}
