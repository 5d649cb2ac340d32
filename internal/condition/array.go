package condition

import "github.com/flagkit/flagkit/internal/value"

// InCond implements $in: true if the value equals any of the
// expected elements, or — when the value is itself an array — if any
// element of the value is among the expected elements.
type InCond struct {
	expected value.ArrValue
}

func NewInCond(expected value.ArrValue) InCond {
	return InCond{expected}
}

func (c InCond) Eval(actual value.Value) bool {
	if arr, ok := actual.(value.ArrValue); ok {
		for _, v := range arr {
			if isIn(v, c.expected) {
				return true
			}
		}
		return false
	}
	return isIn(actual, c.expected)
}

// NewNinCond implements $nin as the negation of $in.
func NewNinCond(expected value.ArrValue) Condition {
	return NotCond{NewInCond(expected)}
}

func isIn(v value.Value, set value.ArrValue) bool {
	for _, e := range set {
		if value.Equal(v, e) {
			return true
		}
	}
	return false
}

// AllCond implements $all: every element of the argument array must
// itself match the value array via at least one element.
type AllCond []Condition

func (cs AllCond) Eval(actual value.Value) bool {
	arr, ok := actual.(value.ArrValue)
	if !ok {
		return false
	}
	for _, c := range cs {
		matched := false
		for _, v := range arr {
			if c.Eval(v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// ElemMatchCond implements $elemMatch: at least one array element
// matches the nested condition/matcher.
type ElemMatchCond struct {
	cond Condition
}

func NewElemMatchCond(cond Condition) ElemMatchCond {
	return ElemMatchCond{cond}
}

func (c ElemMatchCond) Eval(actual value.Value) bool {
	arr, ok := actual.(value.ArrValue)
	if !ok {
		return false
	}
	for _, v := range arr {
		if c.cond.Eval(v) {
			return true
		}
	}
	return false
}

// SizeCond implements $size: the array length must satisfy a nested
// matcher (either a literal number or a comparison matcher object).
type SizeCond struct {
	cond Condition
}

func NewSizeCond(cond Condition) SizeCond {
	return SizeCond{cond}
}

func (c SizeCond) Eval(actual value.Value) bool {
	arr, ok := actual.(value.ArrValue)
	if !ok {
		return false
	}
	return c.cond.Eval(value.Num(len(arr)))
}
