package condition

import (
	"strings"

	"github.com/flagkit/flagkit/internal/value"
)

// FieldCond resolves a dot-separated path against the object being
// evaluated, then hands the resolved value to a nested matcher.
// Missing path segments resolve to value.Undefined rather than
// failing (spec.md §4.3: "Entire path resolution never raises").
type FieldCond struct {
	path []string
	cond Condition
}

func NewFieldCond(pathStr string, cond Condition) FieldCond {
	return FieldCond{path: strings.Split(pathStr, "."), cond: cond}
}

func (c FieldCond) Eval(actual value.Value) bool {
	return c.cond.Eval(value.Get(actual, c.path))
}
