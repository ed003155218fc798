package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/danthegoodman1/fedb/future"
)

func TestGetTableUnknown(t *testing.T) {
	db := New()
	if _, err := db.GetTable("nope"); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestSetTableDefaultsAndReplace(t *testing.T) {
	db := New()
	if err := db.SetTable("users", userSchema, nil); err != nil {
		t.Fatal(err)
	}
	users := mustTable(t, db, "users")
	if users.Len() != 0 {
		t.Fatalf("expected empty table, got %d rows", users.Len())
	}
	rows := collect(t, users.Query())
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty result, got %#v", rows)
	}

	if err := db.SetTable("users", userSchema, []Record{{"id": 1, "name": "a"}}); err != nil {
		t.Fatal(err)
	}
	if mustTable(t, db, "users").Len() != 1 {
		t.Fatal("table was not replaced")
	}

	// a failing replacement leaves the old table in place
	err := db.SetTable("users", userSchema, []Record{{"id": 1, "name": "a"}, {"id": 1, "name": "b"}})
	if !errors.Is(err, ErrNonUniqueIndex) {
		t.Fatalf("expected ErrNonUniqueIndex, got %v", err)
	}
	if mustTable(t, db, "users").Len() != 1 {
		t.Fatal("failed SetTable replaced the table")
	}

	err = db.SetTable("bad", SchemaConfig{{Name: "a", Spec: FieldSpec{Type: Enum}}}, nil)
	if !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if _, err := db.GetTable("bad"); !errors.Is(err, ErrUnknownTable) {
		t.Fatal("failed SetTable registered a table")
	}
}

func TestTables(t *testing.T) {
	db := New()
	for _, name := range []string{"c", "a", "b"} {
		if err := db.SetTable(name, userSchema, nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := db.Tables(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestAntsDelivery(t *testing.T) {
	exec, err := future.NewAntsExecutor(4)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Shutdown(time.Second)

	db := New(WithExecutor(exec))
	if err := db.SetTable("users", userSchema, []Record{{"id": 1, "name": "a"}}); err != nil {
		t.Fatal(err)
	}
	if db.Executor() != exec {
		t.Fatal("executor not set")
	}

	f, err := mustTable(t, db, "users").Query("id", 1).Execute()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rows, err := f.Await(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["name"] != "a" {
		t.Fatalf("got %v", rows)
	}
}
