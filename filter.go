package flagkit

import (
	"encoding/json"

	"github.com/flagkit/flagkit/internal/value"
)

// Filter gates rule/experiment inclusion by hashing an attribute and
// checking range membership, independent of namespace (spec §3,
// §4.5.3).
type Filter struct {
	Seed        string        `json:"seed"`
	Ranges      []BucketRange `json:"ranges"`
	HashVersion int           `json:"hashVersion"`
	Attribute   string        `json:"attribute"`
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	type alias Filter
	aux := alias{HashVersion: 2, Attribute: "id"}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Filter(aux)
	return nil
}

// excludes reports whether this filter excludes the given hash value
// (spec §4.5.3): empty value, an unrecognized hash version, or a hash
// that falls outside every range all count as exclusion.
func (f Filter) excludes(hashValue string) bool {
	if hashValue == "" {
		return true
	}
	h := computeHash(f.Seed, value.Str(hashValue), f.HashVersion)
	if h == nil {
		return true
	}
	return chooseVariation(*h, f.Ranges) == -1
}
