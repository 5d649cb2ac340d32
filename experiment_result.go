package flagkit

import "github.com/flagkit/flagkit/internal/value"

// ExperimentResult is the outcome of running an experiment (spec §3).
// VariationId and Value are always set, even on a fallback result
// (0 and Variations[0] respectively); HashAttribute/HashValue are
// always set.
type ExperimentResult struct {
	InExperiment     bool
	VariationId      int
	Value            value.Value
	HashUsed         bool
	HashAttribute    string
	HashValue        string
	FeatureId        string
	Key              string
	Bucket           *float64
	Name             string
	Passthrough      bool
	StickyBucketUsed bool
}
