package flagkit

import (
	"encoding/json"

	"github.com/flagkit/flagkit/internal/value"
)

// Feature holds a default value plus the ordered rules that may
// override it (spec §3).
type Feature struct {
	DefaultValue value.Value
	Rules        []FeatureRule
}

// FeatureMap is the decoded form of a feature payload's "features"
// object, keyed by feature id (spec §6).
type FeatureMap map[string]*Feature

func (f *Feature) UnmarshalJSON(data []byte) error {
	var aux struct {
		DefaultValue value.JSON    `json:"defaultValue"`
		Rules        []FeatureRule `json:"rules"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	dv := aux.DefaultValue.V
	if dv == nil {
		dv = value.Null()
	}
	*f = Feature{DefaultValue: dv, Rules: aux.Rules}
	return nil
}
