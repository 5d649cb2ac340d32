package condition

import (
	"regexp"

	"github.com/flagkit/flagkit/internal/value"
)

// ExistsCond implements $exists: matches presence (non-undefined) of
// a value, or its absence, depending on the boolean argument.
type ExistsCond struct {
	expectPresent bool
}

func NewExistsCond(expectPresent bool) ExistsCond {
	return ExistsCond{expectPresent}
}

func (c ExistsCond) Eval(actual value.Value) bool {
	present := actual.Type() != value.UndefinedType
	return present == c.expectPresent
}

// TypeCond implements $type: the JSON type tag of the value must
// match the named type (spec.md §4.3's type tag table).
type TypeCond struct {
	t value.Type
}

func NewTypeCond(name string) TypeCond {
	return TypeCond{typeFromName(name)}
}

func typeFromName(name string) value.Type {
	switch name {
	case "string":
		return value.StrType
	case "number":
		return value.NumType
	case "boolean":
		return value.BoolType
	case "array":
		return value.ArrType
	case "object":
		return value.ObjType
	case "null":
		return value.NullType
	case "undefined":
		return value.UndefinedType
	default:
		return value.UndefinedType
	}
}

func (c TypeCond) Eval(actual value.Value) bool {
	return actual.Type() == c.t
}

// RegexCond implements $regex: a compiled regular expression tested
// against a string value. Any non-string value fails to match.
type RegexCond struct {
	re *regexp.Regexp
}

func NewRegexCond(re *regexp.Regexp) RegexCond {
	return RegexCond{re}
}

func (c RegexCond) Eval(actual value.Value) bool {
	s, ok := actual.(value.StrValue)
	if !ok {
		return false
	}
	return c.re.MatchString(string(s))
}
