package comparison

import (
	"errors"
	"fmt"
)

type (
	// OperatorFunc compares a record's value (left) with the query value (right).
	OperatorFunc func(left, right any) bool

	// Comparison is a single predicate applied to one field of a record.
	Comparison struct {
		field    string
		operator string
		value    any
		bound    bool
		fn       OperatorFunc
	}
)

const (
	OpEq       = "="
	OpNe       = "!="
	OpNeAlt    = "<>"
	OpLt       = "<"
	OpGt       = ">"
	OpLte      = "<="
	OpGte      = ">="
	OpWildcard = "*"
)

var (
	Operators = map[string]OperatorFunc{
		OpEq: Equal,
		OpNe: func(left, right any) bool {
			return !Equal(left, right)
		},
		OpLt: func(left, right any) bool {
			c, ok := Order(left, right)
			return ok && c < 0
		},
		OpGt: func(left, right any) bool {
			c, ok := Order(left, right)
			return ok && c > 0
		},
		OpLte: func(left, right any) bool {
			c, ok := Order(left, right)
			return ok && c <= 0
		},
		OpGte: func(left, right any) bool {
			c, ok := Order(left, right)
			return ok && c >= 0
		},
		OpWildcard: func(any, any) bool {
			return true
		},
	}

	ErrUnsupportedOperator = errors.New("operation not supported")
)

func init() {
	Operators[OpNeAlt] = Operators[OpNe]
}

// New builds a comparison. The value is optional: when omitted it must be
// supplied at evaluation time through Match.
func New(field, operator string, value ...any) (*Comparison, error) {
	fn, ok := Operators[operator]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, operator)
	}
	c := &Comparison{
		field:    field,
		operator: operator,
		fn:       fn,
	}
	if len(value) > 0 {
		c.value = value[0]
		c.bound = true
	}
	return c, nil
}

// Wildcard matches every record.
func Wildcard() *Comparison {
	return &Comparison{operator: OpWildcard, fn: Operators[OpWildcard]}
}

func (c *Comparison) Field() string {
	return c.field
}

func (c *Comparison) Operator() string {
	return c.operator
}

// IsSingleOperation is true only for equality, which is what makes a comparison
// eligible for an index lookup.
func (c *Comparison) IsSingleOperation() bool {
	return c.operator == OpEq
}

// Value resolves the right hand operand: a bound value wins over the one passed
// at evaluation time.
func (c *Comparison) Value(value any) any {
	if c.bound {
		return c.value
	}
	return value
}

// Match evaluates the predicate against row. value is used only when the
// comparison was built without one.
func (c *Comparison) Match(row map[string]any, value any) bool {
	return c.fn(row[c.field], c.Value(value))
}

func (c *Comparison) String() string {
	if c.operator == OpWildcard {
		return OpWildcard
	}
	if c.bound {
		return fmt.Sprintf("%s %s %v", c.field, c.operator, c.value)
	}
	return fmt.Sprintf("%s %s ?", c.field, c.operator)
}
