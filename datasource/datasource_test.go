package datasource

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/utils"
)

func TestDecodeRowsArray(t *testing.T) {
	rows, err := DecodeRows([]byte(`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["name"] != "b" {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestDecodeRowsNDJSON(t *testing.T) {
	rows, err := DecodeRows([]byte("{\"id\": 1}\n\n{\"id\": 2}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1]["id"] != float64(2) {
		t.Fatalf("unexpected rows %+v", rows)
	}

	_, err = DecodeRows([]byte("{\"id\": 1}\n[1, 2]\n"))
	if !errors.Is(err, ErrNotAnObject) {
		t.Fatalf("expected ErrNotAnObject, got %v", err)
	}
}

func TestDecodeRowsEmpty(t *testing.T) {
	rows, err := DecodeRows([]byte("  \n"))
	if err != nil {
		t.Fatal(err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %+v", rows)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte(`[{"id": 1, "name": "Sam"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := (&FileSource{Path: path}).Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Sam" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Rows(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSQLSourceSqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`create table people (id integer primary key, name text, friends text)`,
		`insert into people (id, name, friends) values (1, 'Ann', '[2]')`,
		`insert into people (id, name, friends) values (2, 'Bob', '[]')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	src := &SQLSource{
		Driver:      "sqlite",
		DSN:         path,
		Query:       "select id, name, friends from people order by id",
		JSONColumns: []string{"friends"},
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "Ann" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
	friends, ok := rows[0]["friends"].([]any)
	if !ok || len(friends) != 1 || friends[0] != float64(2) {
		t.Fatalf("unexpected friends %#v", rows[0]["friends"])
	}

	// the rows are accepted by a matching schema
	err = engine.New().SetTable("people", engine.SchemaConfig{
		{Name: "id", Spec: engine.FieldSpec{Type: engine.Number, Unique: true}},
		{Name: "name", Spec: engine.FieldSpec{Type: engine.String}},
		{Name: "friends", Spec: engine.FieldSpec{Type: engine.TableType, Target: "people"}},
	}, rows)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSQLSourceUnknownDriver(t *testing.T) {
	_, err := (&SQLSource{Driver: "oracle"}).Rows(context.Background())
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestParquetRoundTrip(t *testing.T) {
	db := engine.New()
	err := db.SetTable("scores", engine.SchemaConfig{
		{Name: "name", Spec: engine.FieldSpec{Type: engine.String}},
		{Name: "score", Spec: engine.FieldSpec{Type: engine.Number}},
	}, []engine.Record{
		{"name": "a", "score": 1},
		{"name": "b", "score": 2.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	table, err := db.GetTable("scores")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "scores.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteParquet(f, table); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rows, err := (&ParquetSource{Path: path, Fields: table.Schema().Fields()}).Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "a" || rows[1]["score"] != 2.5 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestPostgresSourceWithoutPool(t *testing.T) {
	_, err := (&PostgresSource{Query: "select 1"}).Rows(context.Background())
	if !errors.Is(err, utils.ErrNoPool) {
		t.Fatalf("expected ErrNoPool, got %v", err)
	}
}
