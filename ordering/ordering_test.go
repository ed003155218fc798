package ordering

import (
	"errors"
	"testing"
)

type row map[string]any

func ids(rows []row) []any {
	var out []any
	for _, r := range rows {
		out = append(out, r["id"])
	}
	return out
}

func TestDirections(t *testing.T) {
	for _, d := range []string{"asc", "ASC", "Desc", "desc", ""} {
		if _, err := New("f", d); err != nil {
			t.Fatalf("direction %q: %s", d, err)
		}
	}
	_, err := New("f", "sideways")
	if !errors.Is(err, ErrUnknownOrdering) {
		t.Fatalf("expected ErrUnknownOrdering, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	asc, _ := New("n", "ASC")
	desc, _ := New("n", "DESC")
	a, b := map[string]any{"n": 1}, map[string]any{"n": 2}
	if asc.Compare(a, b) != -1 || asc.Compare(b, a) != 1 || asc.Compare(a, a) != 0 {
		t.Fatal("bad ascending comparator")
	}
	if desc.Compare(a, b) != 1 || desc.Compare(b, a) != -1 {
		t.Fatal("bad descending comparator")
	}
}

func TestSortReversesDistinctKeys(t *testing.T) {
	rows := []row{{"id": 1, "n": "b"}, {"id": 2, "n": "c"}, {"id": 3, "n": "a"}}
	asc, _ := New("n", "asc")
	desc, _ := New("n", "desc")

	Sort(asc, rows)
	up := ids(rows)
	Sort(desc, rows)
	down := ids(rows)

	for i := range up {
		if up[i] != down[len(down)-1-i] {
			t.Fatalf("desc is not the reverse of asc: %v %v", up, down)
		}
	}
	if up[0] != 3 || up[1] != 1 || up[2] != 2 {
		t.Fatalf("bad ascending order %v", up)
	}
}

func TestSortIsStable(t *testing.T) {
	rows := []row{
		{"id": 1, "n": 2},
		{"id": 2, "n": 1},
		{"id": 3, "n": 2},
		{"id": 4, "n": 1},
	}
	desc, _ := New("n", "desc")
	Sort(desc, rows)
	got := ids(rows)
	want := []any{1, 3, 2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestMixedKinds(t *testing.T) {
	rows := []row{
		{"id": 1, "n": "b"},
		{"id": 2, "n": 5},
		{"id": 3},
		{"id": 4, "n": "a"},
		{"id": 5, "n": 1},
		{"id": 6, "n": nil},
	}
	asc, _ := New("n", "asc")
	Sort(asc, rows)
	got := ids(rows)
	want := []any{5, 2, 4, 1, 3, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	a, b := map[string]any{"n": "x"}, map[string]any{"n": 1}
	if asc.Compare(a, b) != 1 || asc.Compare(b, a) != -1 {
		t.Fatal("numbers should sort before strings")
	}
}
