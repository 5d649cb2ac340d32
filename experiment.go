package flagkit

import (
	"encoding/json"

	"github.com/flagkit/flagkit/internal/condition"
	"github.com/flagkit/flagkit/internal/value"
)

// Experiment describes an A/B test: a weighted set of variations plus
// the same gating fields as a FeatureRule (spec §3).
type Experiment struct {
	Key                    string
	Variations             []value.Value
	Active                 bool
	Force                  *int
	Condition              condition.Base
	ParentConditions       []Prerequisite
	Coverage               *float64
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

// NewExperiment creates an experiment with default settings: active,
// but all other fields empty.
func NewExperiment(key string) *Experiment {
	return &Experiment{Key: key, Active: true}
}

// WithVariations sets the variation values for an experiment.
func (exp *Experiment) WithVariations(variations ...value.Value) *Experiment {
	exp.Variations = variations
	return exp
}

// WithRanges sets the per-variation bucket ranges for an experiment.
func (exp *Experiment) WithRanges(ranges ...BucketRange) *Experiment {
	exp.Ranges = ranges
	return exp
}

// WithMeta sets the variation metadata for an experiment.
func (exp *Experiment) WithMeta(meta ...VariationMeta) *Experiment {
	exp.Meta = meta
	return exp
}

// WithWeights sets the variation weights for an experiment.
func (exp *Experiment) WithWeights(weights ...float64) *Experiment {
	exp.Weights = weights
	return exp
}

// WithSeed sets the hash seed for an experiment.
func (exp *Experiment) WithSeed(seed string) *Experiment {
	exp.Seed = seed
	return exp
}

// WithName sets the display name for an experiment.
func (exp *Experiment) WithName(name string) *Experiment {
	exp.Name = name
	return exp
}

// WithPhase sets the phase label for an experiment.
func (exp *Experiment) WithPhase(phase string) *Experiment {
	exp.Phase = phase
	return exp
}

// WithActive sets the active flag for an experiment.
func (exp *Experiment) WithActive(active bool) *Experiment {
	exp.Active = active
	return exp
}

// WithCoverage sets the rollout coverage for an experiment.
func (exp *Experiment) WithCoverage(coverage float64) *Experiment {
	exp.Coverage = &coverage
	return exp
}

// WithCondition sets the gating condition for an experiment.
func (exp *Experiment) WithCondition(cond condition.Base) *Experiment {
	exp.Condition = cond
	return exp
}

// WithNamespace sets the mutual-exclusion namespace for an experiment.
func (exp *Experiment) WithNamespace(namespace *Namespace) *Experiment {
	exp.Namespace = namespace
	return exp
}

// WithForce sets a forced variation index for an experiment.
func (exp *Experiment) WithForce(force int) *Experiment {
	exp.Force = &force
	return exp
}

// WithHashAttribute sets the hash attribute for an experiment.
func (exp *Experiment) WithHashAttribute(hashAttribute string) *Experiment {
	exp.HashAttribute = hashAttribute
	return exp
}

func (exp *Experiment) getSeed() string {
	if exp.Seed != "" {
		return exp.Seed
	}
	return exp.Key
}

func (exp *Experiment) getCoverage() float64 {
	if exp.Coverage == nil {
		return 1.0
	}
	return *exp.Coverage
}

func (exp *Experiment) getHashVersion() int {
	if exp.HashVersion == 0 {
		return 1
	}
	return exp.HashVersion
}

func (exp *Experiment) UnmarshalJSON(data []byte) error {
	var aux struct {
		Key                    string          `json:"key"`
		Variations             []value.JSON    `json:"variations"`
		Active                 *bool           `json:"active"`
		Force                  *int            `json:"force"`
		Condition              condition.Base  `json:"condition"`
		ParentConditions       []Prerequisite  `json:"parentConditions"`
		Coverage               *float64        `json:"coverage"`
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
	active := true
	if aux.Active != nil {
		active = *aux.Active
	}
	*exp = Experiment{
		Key:                    aux.Key,
		Variations:             unwrapValues(aux.Variations),
		Active:                 active,
		Force:                  aux.Force,
		Condition:              aux.Condition,
		ParentConditions:       aux.ParentConditions,
		Coverage:               aux.Coverage,
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

// experimentFromRule adapts a rule's variation/weighting fields into
// an Experiment so that §4.5.2's experiment path can run it.
func experimentFromRule(featureID string, rule *FeatureRule) *Experiment {
	key := rule.Key
	if key == "" {
		key = featureID
	}
	return &Experiment{
		Key:                    key,
		Variations:             rule.Variations,
		Active:                 true,
		Condition:              rule.Condition,
		ParentConditions:       rule.ParentConditions,
		Coverage:               rule.Coverage,
		Weights:                rule.Weights,
		Namespace:              rule.Namespace,
		HashAttribute:          rule.HashAttribute,
		FallbackAttribute:      rule.FallbackAttribute,
		HashVersion:            rule.HashVersion,
		Range:                  rule.Range,
		Ranges:                 rule.Ranges,
		Meta:                   rule.Meta,
		Filters:                rule.Filters,
		Seed:                   rule.Seed,
		Name:                   rule.Name,
		Phase:                  rule.Phase,
		DisableStickyBucketing: rule.DisableStickyBucketing,
		BucketVersion:          rule.BucketVersion,
		MinBucketVersion:       rule.MinBucketVersion,
	}
}
