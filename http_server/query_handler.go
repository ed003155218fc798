package http_server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danthegoodman1/fedb/engine"
)

type (
	PredicateBody struct {
		Field string `validate:"required"`
		Op    string `validate:"required"`
		// Omitted means the value is supplied at execution
		Value json.RawMessage
	}

	OrderByBody struct {
		Field     string `validate:"required"`
		Direction string `validate:"omitempty,oneof=ASC DESC asc desc"`
	}

	JoinBody struct {
		Field string `validate:"required"`
		// Defaults to the target declared in the schema
		Table string
	}

	QueryReqBody struct {
		Where   *PredicateBody
		And     *PredicateBody
		Or      *PredicateBody
		OrderBy *OrderByBody
		Join    *JoinBody
		// Bound to predicates without their own value
		Value     json.RawMessage
		TimeoutMS int64 `validate:"gte=0"`
	}

	QueryResult struct {
		QueryID string
		Plan    string
		Query   string
		Rows    []engine.Record
		TimeMS  int64
	}
)

func (s *HTTPServer) Query(c *CustomContext) error {
	start := time.Now()
	var reqBody QueryReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	timeout := time.Second * 10
	if reqBody.TimeoutMS > 0 {
		timeout = time.Millisecond * time.Duration(reqBody.TimeoutMS)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	t, err := s.DB.GetTable(c.Param("table"))
	if err != nil {
		return c.EngineError(err, "error in GetTable")
	}

	q := t.Query()
	preds := []struct {
		body  *PredicateBody
		apply func(field, operator string, value ...any) *engine.Query
	}{
		{reqBody.Where, q.Where},
		{reqBody.And, q.And},
		{reqBody.Or, q.Or},
	}
	for _, p := range preds {
		if p.body == nil {
			continue
		}
		value, ok, err := decodeValue(p.body.Value)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if ok {
			p.apply(p.body.Field, p.body.Op, value)
		} else {
			p.apply(p.body.Field, p.body.Op)
		}
	}
	if reqBody.OrderBy != nil {
		q.OrderBy(reqBody.OrderBy.Field, reqBody.OrderBy.Direction)
	}
	if reqBody.Join != nil {
		q.LeftJoin(reqBody.Join.Field, s.DB, reqBody.Join.Table)
	}

	var execArgs []any
	value, ok, err := decodeValue(reqBody.Value)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if ok {
		execArgs = append(execArgs, value)
	}
	rows, err := q.Collect(ctx, execArgs...)
	if err != nil {
		return c.EngineError(err, "error in Collect")
	}

	return c.JSON(http.StatusOK, QueryResult{
		QueryID: q.ID(),
		Plan:    q.Plan(),
		Query:   q.String(),
		Rows:    rows,
		TimeMS:  time.Since(start).Milliseconds(),
	})
}
