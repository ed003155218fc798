package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/danthegoodman1/gojsonutils"
	"github.com/spf13/cobra"
)

var ErrBadPredicate = errors.New("predicate must look like \"field op [value]\"")

type predicate struct {
	field    string
	operator string
	value    []any
}

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Run a query against a manifest and print the rows as NDJSON",
	Example: `  fedb query users --manifest tables.json --where "age >= 18" --order "name desc" --join friends
  fedb query users --manifest tables.json --where "id =" --value 7`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("where", "", "Primary predicate, \"field op [value]\"")
	queryCmd.Flags().String("and", "", "Predicate that must also hold")
	queryCmd.Flags().String("or", "", "Predicate that may hold instead")
	queryCmd.Flags().String("order", "", "Ordering, \"field [asc|desc]\"")
	queryCmd.Flags().String("join", "", "Table field to join, \"field[:table]\"")
	queryCmd.Flags().String("value", "", "Value for predicates written without one")
	queryCmd.Flags().Bool("flat", false, "Flatten nested rows into dotted keys")
	queryCmd.Flags().Duration("timeout", time.Second*10, "How long to wait for the result")
}

func runQuery(cmd *cobra.Command, args []string) error {
	app, err := NewApp(cmd.Context(), configFromViper(v))
	if err != nil {
		return err
	}
	defer app.Shutdown()

	t, err := app.DB.GetTable(args[0])
	if err != nil {
		return err
	}
	q, err := buildQuery(t, app.DB, queryFlags{
		where: v.GetString("where"),
		and:   v.GetString("and"),
		or:    v.GetString("or"),
		order: v.GetString("order"),
		join:  v.GetString("join"),
	})
	if err != nil {
		return err
	}

	var execArgs []any
	if cmd.Flags().Changed("value") {
		execArgs = append(execArgs, parseValue(v.GetString("value")))
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
	defer cancel()
	rows, err := q.Collect(ctx, execArgs...)
	if err != nil {
		return err
	}
	logger.Debug().Str("query", q.String()).Str("plan", q.Plan()).Int("rows", len(rows)).Msg("ran query")
	return writeRows(cmd.OutOrStdout(), rows, v.GetBool("flat"))
}

type queryFlags struct {
	where, and, or, order, join string
}

func buildQuery(t *engine.Table, db *engine.Database, f queryFlags) (*engine.Query, error) {
	q := t.Query()
	for _, p := range []struct {
		text  string
		apply func(field, operator string, value ...any) *engine.Query
	}{
		{f.where, q.Where},
		{f.and, q.And},
		{f.or, q.Or},
	} {
		if p.text == "" {
			continue
		}
		pred, err := parsePredicate(p.text)
		if err != nil {
			return nil, err
		}
		p.apply(pred.field, pred.operator, pred.value...)
	}
	if f.order != "" {
		parts := strings.Fields(f.order)
		q.OrderBy(parts[0], parts[1:]...)
	}
	if f.join != "" {
		field, table, _ := strings.Cut(f.join, ":")
		q.LeftJoin(field, db, table)
	}
	return q, q.Err()
}

// parsePredicate splits "field op value". The value is read as JSON when it
// parses and as a bare string otherwise. A missing value leaves it unbound.
func parsePredicate(s string) (predicate, error) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return predicate{}, fmt.Errorf("%w: %q", ErrBadPredicate, s)
	}
	p := predicate{field: parts[0], operator: parts[1]}
	if len(parts) > 2 {
		p.value = []any{parseValue(strings.Join(parts[2:], " "))}
	}
	return p, nil
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func writeRows(w io.Writer, rows []engine.Record, flat bool) error {
	for _, row := range rows {
		var out any = row
		if flat {
			flattened, err := gojsonutils.Flatten(row, nil)
			if err != nil {
				return fmt.Errorf("error flattening row: %w", err)
			}
			out = flattened
		}
		b, err := utils.MarshalNoEscape(out)
		if err != nil {
			return fmt.Errorf("error in MarshalNoEscape: %w", err)
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}
