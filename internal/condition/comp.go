package condition

import "github.com/flagkit/flagkit/internal/value"

// CompCond implements $eq, $ne, $lt, $lte, $gt, $gte.
type CompCond struct {
	op  Operator
	arg value.Value
}

func NewCompCond(op Operator, arg value.Value) CompCond {
	return CompCond{op, arg}
}

func (c CompCond) Eval(actual value.Value) bool {
	switch c.op {
	case eqOp:
		return value.Equal(actual, c.arg)
	case neOp:
		return !value.Equal(actual, c.arg)
	}
	cmp := naturalCompare(actual, c.arg)
	switch c.op {
	case ltOp:
		return cmp == -1
	case lteOp:
		return cmp == -1 || cmp == 0
	case gtOp:
		return cmp == 1
	case gteOp:
		return cmp == 1 || cmp == 0
	default:
		return false
	}
}

// naturalCompare implements spec.md §4.3's "natural comparison:
// numeric if both numeric, else lexicographic string compare".
// Returns -1, 0, 1, or 2 for "not comparable".
func naturalCompare(a, b value.Value) int {
	if value.IsNullish(a) && value.IsNullish(b) {
		return 0
	}
	if sa, oka := a.(value.StrValue); oka {
		if sb, okb := b.(value.StrValue); okb {
			switch {
			case sa < sb:
				return -1
			case sa == sb:
				return 0
			default:
				return 1
			}
		}
	}
	na, oka := a.Cast(value.NumType).(value.NumValue)
	nb, okb := b.Cast(value.NumType).(value.NumValue)
	if oka && okb {
		switch {
		case na < nb:
			return -1
		case na == nb:
			return 0
		default:
			return 1
		}
	}
	return 2
}
