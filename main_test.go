package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danthegoodman1/fedb/engine"
)

func TestParsePredicate(t *testing.T) {
	p, err := parsePredicate("age >= 18")
	if err != nil {
		t.Fatal(err)
	}
	if p.field != "age" || p.operator != ">=" || len(p.value) != 1 || p.value[0] != float64(18) {
		t.Fatalf("unexpected predicate %+v", p)
	}

	p, err = parsePredicate("name = Sam Smith")
	if err != nil {
		t.Fatal(err)
	}
	if p.value[0] != "Sam Smith" {
		t.Fatalf("unexpected value %#v", p.value[0])
	}

	p, err = parsePredicate("id =")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.value) != 0 {
		t.Fatalf("expected unbound value, got %+v", p.value)
	}

	if _, err := parsePredicate("id"); !errors.Is(err, ErrBadPredicate) {
		t.Fatalf("expected ErrBadPredicate, got %v", err)
	}
}

func TestBuildQuery(t *testing.T) {
	db := engine.New()
	err := db.SetTable("pets", engine.SchemaConfig{
		{Name: "id", Spec: engine.FieldSpec{Type: engine.Number, Unique: true}},
		{Name: "name", Spec: engine.FieldSpec{Type: engine.String}},
	}, []engine.Record{
		{"id": 1, "name": "rex"},
		{"id": 2, "name": "tom"},
		{"id": 3, "name": "ada"},
	})
	if err != nil {
		t.Fatal(err)
	}
	table, err := db.GetTable("pets")
	if err != nil {
		t.Fatal(err)
	}

	q, err := buildQuery(table, db, queryFlags{where: "id > 1", order: "name desc"})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := q.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0]["name"] != "tom" || rows[1]["name"] != "ada" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if _, err := buildQuery(table, db, queryFlags{where: "id ~ 1"}); err == nil {
		t.Fatal("expected error for unsupported operator")
	}
	if _, err := buildQuery(table, db, queryFlags{join: "name"}); !errors.Is(err, engine.ErrJoinNotSupported) {
		t.Fatalf("expected ErrJoinNotSupported, got %v", err)
	}
}

func TestWriteRows(t *testing.T) {
	rows := []engine.Record{
		{"id": 1, "owner": map[string]any{"name": "<b>"}},
	}
	var b bytes.Buffer
	if err := writeRows(&b, rows, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), `"<b>"`) {
		t.Fatalf("expected unescaped output, got %s", b.String())
	}

	b.Reset()
	if err := writeRows(&b, rows, true); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(b.String(), `"owner":{`) || !strings.Contains(b.String(), `"<b>"`) {
		t.Fatalf("expected flattened row, got %s", b.String())
	}
}

func TestExportTarget(t *testing.T) {
	cfg := newViper()
	if _, _, err := exportTarget(cfg); !errors.Is(err, ErrExportTarget) {
		t.Fatalf("expected ErrExportTarget with nothing set, got %v", err)
	}

	t.Setenv("FEDB_S3_PREFIX", "exports")
	out, prefix, err := exportTarget(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" || prefix != "exports" {
		t.Fatalf("expected s3 prefix from env, got %q %q", out, prefix)
	}

	cfg.Set("out", "users.parquet")
	if _, _, err := exportTarget(cfg); !errors.Is(err, ErrExportTarget) {
		t.Fatalf("expected ErrExportTarget with both set, got %v", err)
	}

	fileOnly := newViper()
	fileOnly.Set("out", "users.parquet")
	t.Setenv("FEDB_S3_PREFIX", "")
	out, _, err = exportTarget(fileOnly)
	if err != nil || out != "users.parquet" {
		t.Fatalf("expected file target, got %q %v", out, err)
	}
}

func TestServeFlags(t *testing.T) {
	t.Setenv("FEDB_SHUTDOWN_SLEEP_SEC", "3")
	cfg := newViper()
	if err := cfg.BindPFlags(serveCmd.Flags()); err != nil {
		t.Fatal(err)
	}
	if got := cfg.GetInt("shutdown-sleep-sec"); got != 3 {
		t.Fatalf("expected 3 from env, got %d", got)
	}
	if f := serveCmd.Flags().Lookup("shutdown-sleep-sec"); f == nil || f.Value.Type() != "int" {
		t.Fatal("expected an int shutdown-sleep-sec flag")
	}
}
