package flagkit

import (
	"encoding/json"
	"fmt"

	"github.com/flagkit/flagkit/internal/value"
)

// Namespace partitions [0,1] into a named sub-interval so that
// experiments sharing a namespace with non-overlapping ranges are
// mutually exclusive (spec §3, §4.2).
type Namespace struct {
	ID    string
	Start float64
	End   float64
}

// inNamespace reports whether userID falls in the namespace's range,
// hashing with v1 against seed "__"+ID (spec §3: "a user belongs to
// the namespace iff hash_v1(\"__\"+id, user_id) ∈ [lo, hi)").
func (n Namespace) inNamespace(userID string) bool {
	h := computeHash("__"+n.ID, value.Str(userID), 1)
	if h == nil {
		return false
	}
	return *h >= n.Start && *h < n.End
}

func (n *Namespace) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("namespace: %w", err)
	}
	var id string
	var start, end float64
	if err := json.Unmarshal(raw[0], &id); err != nil {
		return fmt.Errorf("namespace: %w", err)
	}
	if err := json.Unmarshal(raw[1], &start); err != nil {
		return fmt.Errorf("namespace: %w", err)
	}
	if err := json.Unmarshal(raw[2], &end); err != nil {
		return fmt.Errorf("namespace: %w", err)
	}
	*n = Namespace{id, start, end}
	return nil
}

func (n Namespace) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{n.ID, n.Start, n.End})
}
