package condition

import "github.com/flagkit/flagkit/internal/value"

// ValueCond implements a bare (no operator) matcher: the field value
// is cast to the expected literal's type and compared. This is what
// `{"browser": "chrome"}` desugars to for the `browser` field.
type ValueCond struct {
	expected value.Value
}

func NewValueCond(expected value.Value) ValueCond {
	return ValueCond{expected}
}

func (c ValueCond) Eval(actual value.Value) bool {
	switch c.expected.Type() {
	case value.StrType, value.NumType, value.BoolType:
		return value.Equal(c.expected, actual.Cast(c.expected.Type()))
	case value.NullType:
		return value.IsNullish(actual)
	default:
		return value.Equal(actual, c.expected)
	}
}
