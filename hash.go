package flagkit

import (
	"fmt"
	"hash/fnv"

	"github.com/flagkit/flagkit/internal/value"
)

// computeHash implements the two bucketing hash variants (spec §4.1).
// It returns nil for any version it does not recognize, which callers
// treat as "no hash available" rather than an error.
func computeHash(seed string, attrValue value.Value, version int) *float64 {
	attrStr := attrValue.String()
	switch version {
	case 2:
		v := float64(fnv32a(fmt.Sprint(fnv32a(seed+attrStr)))%10000) / 10000
		return &v
	case 0, 1:
		v := float64(fnv32a(attrStr+seed)%1000) / 1000
		return &v
	default:
		return nil
	}
}

func fnv32a(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
