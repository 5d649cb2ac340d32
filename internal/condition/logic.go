package condition

import "github.com/flagkit/flagkit/internal/value"

// AndConds requires every sub-condition to match; an empty list
// matches (spec.md §4.3: top-level $and/$or/$nor default to true on
// empty, and a bare object of path:matcher pairs is an implicit AND).
type AndConds []Condition

func (cs AndConds) Eval(actual value.Value) bool {
	for _, c := range cs {
		if !c.Eval(actual) {
			return false
		}
	}
	return true
}

// OrConds matches if any sub-condition matches; empty matches.
type OrConds []Condition

func (cs OrConds) Eval(actual value.Value) bool {
	if len(cs) == 0 {
		return true
	}
	for _, c := range cs {
		if c.Eval(actual) {
			return true
		}
	}
	return false
}

// NorConds matches iff no sub-condition matches; empty matches (the
// negation of an empty OrConds, which matches true, still needs an
// explicit NorConds({}).Eval() == true per spec.md).
type NorConds []Condition

func (cs NorConds) Eval(actual value.Value) bool {
	if len(cs) == 0 {
		return true
	}
	return !OrConds(cs).Eval(actual)
}

// NotCond negates a single sub-condition.
type NotCond struct{ cond Condition }

func (c NotCond) Eval(actual value.Value) bool {
	return !c.cond.Eval(actual)
}

// True and False are constant conditions. False stands in for
// unrecognized operators and malformed operator arguments so that
// evaluation can proceed (always failing the match) instead of
// panicking; True always matches.
type True struct{}
type False struct{}

func (True) Eval(value.Value) bool  { return true }
func (False) Eval(value.Value) bool { return false }
