package http_server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/danthegoodman1/fedb/datasource"
	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/parquet_accumulator"
)

type (
	PutTableReqBody struct {
		Schema engine.SchemaConfig `validate:"required"`
		// Array of JSON
		Rows []engine.Record
		// Line-delimited JSON (NDJSON)
		RowsString *string
	}

	LookupReqBody struct {
		Field string `validate:"required"`
		Value json.RawMessage
	}

	TableInfo struct {
		Name    string
		Rows    int
		Schema  engine.SchemaConfig
		Indexes []string
	}
)

func tableInfo(t *engine.Table) TableInfo {
	return TableInfo{
		Name:    t.Name(),
		Rows:    t.Len(),
		Schema:  t.Schema().Config(),
		Indexes: t.Schema().Unique(),
	}
}

func (s *HTTPServer) ListTables(c *CustomContext) error {
	tables := []TableInfo{}
	for _, name := range s.DB.Tables() {
		t, err := s.DB.GetTable(name)
		if err != nil {
			// replaced or removed since listing
			continue
		}
		tables = append(tables, tableInfo(t))
	}
	return c.JSON(http.StatusOK, tables)
}

func (s *HTTPServer) GetTable(c *CustomContext) error {
	t, err := s.DB.GetTable(c.Param("table"))
	if err != nil {
		return c.EngineError(err, "error in GetTable")
	}
	return c.JSON(http.StatusOK, tableInfo(t))
}

func (s *HTTPServer) PutTable(c *CustomContext) error {
	var reqBody PutTableReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	defer c.Request().Body.Close()

	rows := reqBody.Rows
	if reqBody.RowsString != nil {
		parsed, err := datasource.DecodeRows([]byte(*reqBody.RowsString))
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		rows = append(rows, parsed...)
	}

	name := c.Param("table")
	if err := s.DB.SetTable(name, reqBody.Schema, rows); err != nil {
		return c.EngineError(err, "error in SetTable")
	}
	t, err := s.DB.GetTable(name)
	if err != nil {
		return c.EngineError(err, "error in GetTable")
	}
	return c.JSON(http.StatusOK, tableInfo(t))
}

func (s *HTTPServer) Lookup(c *CustomContext) error {
	var reqBody LookupReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	value, ok, err := decodeValue(reqBody.Value)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if !ok {
		return c.String(http.StatusBadRequest, "missing Value")
	}

	t, err := s.DB.GetTable(c.Param("table"))
	if err != nil {
		return c.EngineError(err, "error in GetTable")
	}
	row, err := t.GetByIndex(reqBody.Field, value)
	if err != nil {
		return c.EngineError(err, "error in GetByIndex")
	}
	return c.JSON(http.StatusOK, row)
}

// ExportTable streams the table back as a parquet file.
func (s *HTTPServer) ExportTable(c *CustomContext) error {
	t, err := s.DB.GetTable(c.Param("table"))
	if err != nil {
		return c.EngineError(err, "error in GetTable")
	}
	var b bytes.Buffer
	if err := datasource.WriteParquet(&b, t); err != nil {
		if errors.Is(err, parquet_accumulator.ErrNestedTable) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return c.InternalError(err, "error in WriteParquet")
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Name()+".parquet"))
	return c.Blob(http.StatusOK, "application/vnd.apache.parquet", b.Bytes())
}

// decodeValue reports whether raw carried a value at all. An explicit null is
// a value.
func decodeValue(raw json.RawMessage) (any, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("error decoding value: %w", err)
	}
	return v, true, nil
}
