// Package condition implements the MongoDB-style condition DSL used
// to gate feature rules, experiments and prerequisites. A Condition
// tree is built once (via JSON unmarshaling) from a feature payload
// and evaluated any number of times against a user's attributes; it
// never allocates beyond what evaluation strictly needs and never
// panics on malformed input — an unrecognized operator or a type
// mismatch simply evaluates to false, matching the reference
// semantics described by the cross-SDK conformance suite.
package condition

import "github.com/flagkit/flagkit/internal/value"

// Condition evaluates to true or false against a single resolved
// value (the root attributes object, or a value at some nested path
// within it).
type Condition interface {
	Eval(actual value.Value) bool
}

// Base is the root of a parsed condition expression: a feature's
// `condition` field, a parent condition, or the argument to a logical
// operator. It knows how to unmarshal itself from the condition JSON
// grammar described in spec.md §4.3.
type Base struct {
	cond Condition
}

// Eval evaluates the condition against an attributes object. A Base
// with no condition (the zero value) always matches, which lets
// "no condition configured" and "condition matches everything" share
// the same representation.
func (b Base) Eval(actual value.Value) bool {
	if b.cond == nil {
		return true
	}
	return b.cond.Eval(actual)
}
