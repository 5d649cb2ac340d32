package flagkit

import (
	"encoding/json"

	"github.com/flagkit/flagkit/internal/condition"
	"github.com/flagkit/flagkit/internal/value"
)

// FeatureRule overrides a feature's default value, or runs an
// experiment, subject to conditions, prerequisites, filters and
// rollout coverage (spec §3).
type FeatureRule struct {
	ID                     string
	Condition              condition.Base
	ParentConditions       []Prerequisite
	Coverage               *float64
	Force                  value.Value
	Variations             []value.Value
	Key                    string
	Weights                []float64
	Namespace              *Namespace
	HashAttribute          string
	FallbackAttribute      string
	HashVersion            int
	Range                  *BucketRange
	Ranges                 []BucketRange
	Meta                   []VariationMeta
	Filters                []Filter
	Seed                   string
	Name                   string
	Phase                  string
	DisableStickyBucketing bool
	BucketVersion          int
	MinBucketVersion       int
}

func (r *FeatureRule) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID                     string          `json:"id"`
		Condition              condition.Base  `json:"condition"`
		ParentConditions       []Prerequisite  `json:"parentConditions"`
		Coverage               *float64        `json:"coverage"`
		Force                  value.JSON      `json:"force"`
		Variations             []value.JSON    `json:"variations"`
		Key                    string          `json:"key"`
		Weights                []float64       `json:"weights"`
		Namespace              *Namespace      `json:"namespace"`
		HashAttribute          string          `json:"hashAttribute"`
		FallbackAttribute      string          `json:"fallbackAttribute"`
		HashVersion            int             `json:"hashVersion"`
		Range                  *BucketRange    `json:"range"`
		Ranges                 []BucketRange   `json:"ranges"`
		Meta                   []VariationMeta `json:"meta"`
		Filters                []Filter        `json:"filters"`
		Seed                   string          `json:"seed"`
		Name                   string          `json:"name"`
		Phase                  string          `json:"phase"`
		DisableStickyBucketing bool            `json:"disableStickyBucketing"`
		BucketVersion          int             `json:"bucketVersion"`
		MinBucketVersion       int             `json:"minBucketVersion"`
	}
	aux.HashVersion = 1
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = FeatureRule{
		ID:                     aux.ID,
		Condition:              aux.Condition,
		ParentConditions:       aux.ParentConditions,
		Coverage:               aux.Coverage,
		Force:                  aux.Force.V,
		Variations:             unwrapValues(aux.Variations),
		Key:                    aux.Key,
		Weights:                aux.Weights,
		Namespace:              aux.Namespace,
		HashAttribute:          aux.HashAttribute,
		FallbackAttribute:      aux.FallbackAttribute,
		HashVersion:            aux.HashVersion,
		Range:                  aux.Range,
		Ranges:                 aux.Ranges,
		Meta:                   aux.Meta,
		Filters:                aux.Filters,
		Seed:                   aux.Seed,
		Name:                   aux.Name,
		Phase:                  aux.Phase,
		DisableStickyBucketing: aux.DisableStickyBucketing,
		BucketVersion:          aux.BucketVersion,
		MinBucketVersion:       aux.MinBucketVersion,
	}
	return nil
}

func unwrapValues(wrapped []value.JSON) []value.Value {
	if wrapped == nil {
		return nil
	}
	res := make([]value.Value, len(wrapped))
	for i, w := range wrapped {
		res[i] = w.V
	}
	return res
}
