package condition

import (
	"regexp"
	"strings"

	"github.com/flagkit/flagkit/internal/value"
)

// VersionCond implements $veq, $vne, $vgt, $vgte, $vlt, $vlte: version
// comparison after padding each dotted/dashed segment to width 5
// (spec.md §4.3).
type VersionCond struct {
	op      Operator
	version string
}

func NewVersionCond(op Operator, arg value.Value) VersionCond {
	return VersionCond{op, paddedVersionString(arg)}
}

func (c VersionCond) Eval(actual value.Value) bool {
	av := paddedVersionString(actual)
	switch c.op {
	case veqOp:
		return av == c.version
	case vneOp:
		return av != c.version
	case vgtOp:
		return av > c.version
	case vgteOp:
		return av >= c.version
	case vltOp:
		return av < c.version
	case vlteOp:
		return av <= c.version
	default:
		return false
	}
}

var (
	versionStripRe = regexp.MustCompile(`(^v|\+.*$)`)
	versionSplitRe = regexp.MustCompile(`[-.]`)
	versionNumRe   = regexp.MustCompile(`^[0-9]+$`)
)

// paddedVersionString implements the semver-ish left-padding scheme
// shared across GrowthBook SDKs so that "9" < "10" compares correctly
// as a plain string once padded, and a release without a pre-release
// tag sorts after one that has one.
func paddedVersionString(v value.Value) string {
	s := v.String()
	if s == "" {
		s = "0"
	}
	s = versionStripRe.ReplaceAllString(s, "")
	parts := versionSplitRe.Split(s, -1)
	if len(parts) == 3 {
		parts = append(parts, "~")
	}
	for i, p := range parts {
		if versionNumRe.MatchString(p) {
			trimmed := strings.TrimLeft(p, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			if len(trimmed) < 5 {
				parts[i] = strings.Repeat(" ", 5-len(trimmed)) + trimmed
			} else {
				parts[i] = trimmed
			}
		}
	}
	return strings.Join(parts, "-")
}
