// Package manifest loads a set of tables, in dependency order, from a JSON
// document describing their schemas and where their rows come from.
package manifest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danthegoodman1/fedb/datasource"
	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/gologger"
	"github.com/xeipuuv/gojsonschema"
)

const (
	KindInline   = "inline"
	KindFile     = "file"
	KindS3       = "s3"
	KindPostgres = "postgres"
	KindSQL      = "sql"
	KindParquet  = "parquet"
)

var (
	logger = gologger.NewLogger()

	//go:embed manifest.schema.json
	metaSchema []byte

	ErrInvalidManifest = errors.New("invalid manifest")
)

type (
	Manifest struct {
		Tables []TableSpec `json:"tables"`
	}

	TableSpec struct {
		Name   string              `json:"name"`
		Schema engine.SchemaConfig `json:"schema"`
		Source *SourceSpec         `json:"source,omitempty"`
	}

	SourceSpec struct {
		Kind        string          `json:"kind"`
		Rows        []engine.Record `json:"rows,omitempty"`
		Path        string          `json:"path,omitempty"`
		Key         string          `json:"key,omitempty"`
		Driver      string          `json:"driver,omitempty"`
		DSN         string          `json:"dsn,omitempty"`
		Query       string          `json:"query,omitempty"`
		Args        []any           `json:"args,omitempty"`
		JSONColumns []string        `json:"jsonColumns,omitempty"`
	}
)

// Parse validates b against the manifest schema and decodes it.
func Parse(b []byte) (*Manifest, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(metaSchema))
	if err != nil {
		return nil, fmt.Errorf("error in gojsonschema.NewSchema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(errs, "; "))
	}

	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	seen := make(map[string]bool, len(m.Tables))
	for _, t := range m.Tables {
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: table %s declared twice", ErrInvalidManifest, t.Name)
		}
		seen[t.Name] = true
	}
	return &m, nil
}

// Load reads and parses the manifest at path. Relative file and parquet paths
// are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	m, err := Parse(b)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for _, t := range m.Tables {
		if t.Source != nil && t.Source.Path != "" && !filepath.IsAbs(t.Source.Path) {
			t.Source.Path = filepath.Join(dir, t.Source.Path)
		}
	}
	return m, nil
}

// Source builds the datasource described by s. fields is the table's field
// list, used to restore column names where the source loses them.
func (s *SourceSpec) Source(fields []string) (datasource.Source, error) {
	switch s.Kind {
	case KindInline:
		return &datasource.InlineSource{Records: s.Rows}, nil
	case KindFile:
		return &datasource.FileSource{Path: s.Path}, nil
	case KindS3:
		return &datasource.S3Source{Key: s.Key}, nil
	case KindPostgres:
		return &datasource.PostgresSource{Query: s.Query, Args: s.Args, JSONColumns: s.JSONColumns}, nil
	case KindSQL:
		return &datasource.SQLSource{
			Driver:      s.Driver,
			DSN:         s.DSN,
			Query:       s.Query,
			Args:        s.Args,
			JSONColumns: s.JSONColumns,
		}, nil
	case KindParquet:
		return &datasource.ParquetSource{Path: s.Path, Key: s.Key, Fields: fields}, nil
	}
	return nil, fmt.Errorf("%w: unknown source kind %q", ErrInvalidManifest, s.Kind)
}

// Apply loads every table into db in order, stopping at the first failure.
// Tables set before the failure stay registered.
func (m *Manifest) Apply(ctx context.Context, db *engine.Database) error {
	for _, t := range m.Tables {
		s := time.Now()
		var rows []engine.Record
		if t.Source != nil {
			fields := make([]string, len(t.Schema))
			for i, f := range t.Schema {
				fields[i] = f.Name
			}
			src, err := t.Source.Source(fields)
			if err != nil {
				return err
			}
			rows, err = src.Rows(ctx)
			if err != nil {
				return fmt.Errorf("error loading rows for %s: %w", t.Name, err)
			}
		}
		if err := db.SetTable(t.Name, t.Schema, rows); err != nil {
			return fmt.Errorf("error in SetTable for %s: %w", t.Name, err)
		}
		logger.Debug().Str("table", t.Name).Str("duration", time.Since(s).String()).Msg("applied manifest table")
	}
	return nil
}
