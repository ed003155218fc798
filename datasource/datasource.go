// Package datasource supplies the row arrays that tables are built from.
package datasource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/gologger"
)

var (
	logger = gologger.NewLogger()

	ErrNotAnObject = errors.New("row is not a JSON object")
)

type (
	Source interface {
		Rows(ctx context.Context) ([]engine.Record, error)
	}

	// InlineSource returns rows given up front.
	InlineSource struct {
		Records []engine.Record
	}

	// FileSource reads a JSON array or NDJSON file.
	FileSource struct {
		Path string
	}
)

func (s *InlineSource) Rows(context.Context) ([]engine.Record, error) {
	return s.Records, nil
}

func (s *FileSource) Rows(context.Context) ([]engine.Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	rows, err := DecodeRows(b)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", s.Path, err)
	}
	logger.Debug().Str("path", s.Path).Int("rows", len(rows)).Msg("read file source")
	return rows, nil
}

// DecodeRows accepts either a JSON array of objects or line-delimited objects.
func DecodeRows(b []byte) ([]engine.Record, error) {
	trimmed := bytes.TrimSpace(b)
	rows := []engine.Record{}
	if len(trimmed) == 0 {
		return rows, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
		}
		for i, row := range rows {
			if row == nil {
				return nil, fmt.Errorf("%w: element %d", ErrNotAnObject, i)
			}
		}
		return rows, nil
	}

	ndJSONScanner := bufio.NewScanner(bytes.NewReader(trimmed))
	ndJSONScanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for ndJSONScanner.Scan() {
		line++
		text := bytes.TrimSpace(ndJSONScanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw any
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("error in json.Unmarshal on line %d: %w", line, err)
		}
		jsonMap, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: line %d", ErrNotAnObject, line)
		}
		rows = append(rows, jsonMap)
	}
	if err := ndJSONScanner.Err(); err != nil {
		return nil, fmt.Errorf("error in ndJSONScanner.Scan: %w", err)
	}
	return rows, nil
}
