package comparison

import (
	"cmp"
	"math"
	"reflect"
	"strings"
)

// ToFloat reports v as a float64 if it holds any Go numeric kind. Integers past
// 2^53 lose precision; comparisons go through Equal, Order and Key instead.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

type numKind uint8

const (
	kindInt numKind = iota
	kindUint
	kindFloat
)

// number is a numeric value in the narrowest exact domain: every integral value
// that fits int64 is an int, larger unsigned values are uints, and only what is
// left (fractions, NaN, infinities, integral floats past uint64) stays a float.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

const (
	twoTo63 = float64(1 << 63)
	twoTo64 = twoTo63 * 2
)

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{kind: kindInt, i: int64(n)}, true
	case int8:
		return number{kind: kindInt, i: int64(n)}, true
	case int16:
		return number{kind: kindInt, i: int64(n)}, true
	case int32:
		return number{kind: kindInt, i: int64(n)}, true
	case int64:
		return number{kind: kindInt, i: n}, true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return fromUint(uint64(n)), true
	case uint16:
		return fromUint(uint64(n)), true
	case uint32:
		return fromUint(uint64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		return fromFloat(float64(n)), true
	case float64:
		return fromFloat(n), true
	}
	return number{}, false
}

func fromUint(u uint64) number {
	if u <= math.MaxInt64 {
		return number{kind: kindInt, i: int64(u)}
	}
	return number{kind: kindUint, u: u}
}

func fromFloat(f float64) number {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return number{kind: kindFloat, f: f}
	}
	switch {
	case f >= -twoTo63 && f < twoTo63:
		return number{kind: kindInt, i: int64(f)}
	case f >= twoTo63 && f < twoTo64:
		return number{kind: kindUint, u: uint64(f)}
	}
	return number{kind: kindFloat, f: f}
}

func (n number) key() any {
	switch n.kind {
	case kindInt:
		return n.i
	case kindUint:
		return n.u
	}
	return n.f
}

// compareNumbers is a total order. NaN sorts before every other number and
// equal to itself.
func compareNumbers(a, b number) int {
	if a.kind == kindFloat && b.kind == kindFloat {
		return cmp.Compare(a.f, b.f)
	}
	if a.kind == kindFloat {
		return compareFloat(a.f, b)
	}
	if b.kind == kindFloat {
		return -compareFloat(b.f, a)
	}
	switch {
	case a.kind == kindInt && b.kind == kindInt:
		return cmp.Compare(a.i, b.i)
	case a.kind == kindUint && b.kind == kindUint:
		return cmp.Compare(a.u, b.u)
	case a.kind == kindInt:
		// uints are all above MaxInt64
		return -1
	}
	return 1
}

// compareFloat orders a float-domain value against an exact integer. Such a
// float is never equal to an integer.
func compareFloat(f float64, n number) int {
	switch {
	case math.IsNaN(f), f < -twoTo63:
		return -1
	case f >= twoTo64:
		return 1
	}
	if n.kind == kindUint {
		if f < twoTo63 {
			return -1
		}
		return cmp.Compare(f, float64(n.u))
	}
	if f >= twoTo63 {
		return 1
	}
	if int64(math.Floor(f)) < n.i {
		return -1
	}
	return 1
}

// IsNumber reports whether v holds a Go numeric kind.
func IsNumber(v any) bool {
	_, ok := toNumber(v)
	return ok
}

// Equal is strict equality: numbers compare by exact value regardless of kind,
// strings by content, anything else structurally. NaN equals nothing.
func Equal(a, b any) bool {
	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		if !ok || (na.kind == kindFloat && math.IsNaN(na.f)) {
			return false
		}
		return compareNumbers(na, nb) == 0
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return reflect.DeepEqual(a, b)
}

// Order compares two values of the same underlying type. ok is false when the
// values are not both numbers or both strings.
func Order(a, b any) (c int, ok bool) {
	if na, isNum := toNumber(a); isNum {
		nb, isNum := toNumber(b)
		if !isNum {
			return 0, false
		}
		return compareNumbers(na, nb), true
	}
	sa, isStr := a.(string)
	if !isStr {
		return 0, false
	}
	sb, isStr := b.(string)
	if !isStr {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

// Key normalizes a scalar into a comparable map key so that 1 and 1.0 index
// to the same slot while distinct large integers stay distinct. ok is false
// for values that cannot be hashed.
func Key(v any) (key any, ok bool) {
	if n, isNum := toNumber(v); isNum {
		return n.key(), true
	}
	if v == nil {
		return nil, true
	}
	if !reflect.TypeOf(v).Comparable() {
		return nil, false
	}
	return v, true
}
