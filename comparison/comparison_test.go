package comparison

import (
	"errors"
	"math"
	"testing"
)

func TestOperators(t *testing.T) {
	row := map[string]any{"age": 30, "name": "bob"}

	cases := []struct {
		field string
		op    string
		value any
		want  bool
	}{
		{"age", "=", 30.0, true},
		{"age", "=", "30", false},
		{"age", "!=", 31, true},
		{"age", "<>", 30, false},
		{"age", "<", 31, true},
		{"age", ">", 31, false},
		{"age", "<=", 30, true},
		{"age", ">=", 30.5, false},
		{"name", "<", "carl", true},
		{"name", ">", "alice", true},
		{"name", ">", 3, false},
		{"missing", "=", nil, true},
		{"name", "*", nil, true},
	}

	for _, tc := range cases {
		c, err := New(tc.field, tc.op, tc.value)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.Match(row, nil); got != tc.want {
			t.Fatalf("%s: got %v want %v", c, got, tc.want)
		}
	}
}

func TestUnsupportedOperator(t *testing.T) {
	_, err := New("age", "~=", 1)
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Fatalf("expected ErrUnsupportedOperator, got %v", err)
	}
}

func TestDeferredValue(t *testing.T) {
	c, err := New("id", "=")
	if err != nil {
		t.Fatal(err)
	}
	row := map[string]any{"id": 2}
	if c.Match(row, 1) {
		t.Fatal("should not match 1")
	}
	if !c.Match(row, 2) {
		t.Fatal("should match 2")
	}

	bound, err := New("id", "=", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bound.Match(row, 1) {
		t.Fatal("bound value must win over evaluation value")
	}
}

func TestIsSingleOperation(t *testing.T) {
	for op := range Operators {
		c, err := New("f", op, 1)
		if err != nil {
			t.Fatal(err)
		}
		if c.IsSingleOperation() != (op == OpEq) {
			t.Fatalf("IsSingleOperation wrong for %s", op)
		}
	}
	if Wildcard().IsSingleOperation() {
		t.Fatal("wildcard is not a single operation")
	}
}

func TestKey(t *testing.T) {
	a, ok := Key(1)
	if !ok {
		t.Fatal("int should be hashable")
	}
	b, _ := Key(1.0)
	if a != b {
		t.Fatal("1 and 1.0 should share a key")
	}
	if _, ok := Key([]any{1}); ok {
		t.Fatal("slices are not hashable")
	}
}

func TestLargeIntegersStayExact(t *testing.T) {
	a, b := int64(9007199254740992), int64(9007199254740993)
	if Equal(a, b) {
		t.Fatal("2^53 and 2^53+1 must differ")
	}
	ka, _ := Key(a)
	kb, _ := Key(b)
	if ka == kb {
		t.Fatal("2^53 and 2^53+1 must not share a key")
	}
	if c, ok := Order(a, b); !ok || c != -1 {
		t.Fatalf("expected -1, got %d %v", c, ok)
	}

	big := uint64(1<<63 + 1)
	if c, ok := Order(int64(math.MaxInt64), big); !ok || c != -1 {
		t.Fatalf("expected MaxInt64 below 2^63+1, got %d %v", c, ok)
	}
	if !Equal(float64(1<<62), int64(1<<62)) {
		t.Fatal("integral float should equal the same int")
	}
	if c, _ := Order(2.5, int64(2)); c != 1 {
		t.Fatalf("expected 2.5 above 2, got %d", c)
	}
	if c, _ := Order(-2.5, int64(-2)); c != -1 {
		t.Fatalf("expected -2.5 below -2, got %d", c)
	}
	if Equal(math.NaN(), math.NaN()) {
		t.Fatal("NaN equals nothing")
	}
}
