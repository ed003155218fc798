package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danthegoodman1/fedb/comparison"
)

type (
	Direction string

	// Ordering sorts result sets by a single field.
	Ordering struct {
		field     string
		direction Direction
	}
)

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

var ErrUnknownOrdering = errors.New("unknown ordering")

// New parses direction case-insensitively; an empty direction means ASC.
func New(field, direction string) (*Ordering, error) {
	d := Direction(strings.ToUpper(direction))
	if d == "" {
		d = Asc
	}
	if d != Asc && d != Desc {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrdering, direction)
	}
	return &Ordering{field: field, direction: d}, nil
}

func (o *Ordering) Field() string {
	return o.field
}

func (o *Ordering) Direction() Direction {
	return o.direction
}

// rank groups values by kind: numbers, then strings, then everything else
// (missing fields, nil, lists), which compare equal among themselves.
func rank(v any) int {
	switch {
	case comparison.IsNumber(v):
		return 0
	case isString(v):
		return 1
	}
	return 2
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// Compare returns -1, 0 or 1. Values are ranked by kind first and compared
// within a kind, so mixed columns still sort consistently.
func (o *Ordering) Compare(a, b map[string]any) int {
	va, vb := a[o.field], b[o.field]
	c := cmp.Compare(rank(va), rank(vb))
	if c == 0 {
		c, _ = comparison.Order(va, vb)
	}
	if o.direction == Desc {
		return -c
	}
	return c
}

// Sort orders rows in place, keeping the relative order of equal keys.
func Sort[R ~map[string]any](o *Ordering, rows []R) {
	sort.SliceStable(rows, func(i, j int) bool {
		return o.Compare(rows[i], rows[j]) < 0
	})
}
