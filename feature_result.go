package flagkit

import "github.com/flagkit/flagkit/internal/value"

// FeatureResultSource records why a FeatureResult has the value it
// has (spec §3: exactly these six sources).
type FeatureResultSource string

const (
	UnknownFeatureSource     FeatureResultSource = "unknownFeature"
	DefaultValueSource       FeatureResultSource = "defaultValue"
	ForceSource              FeatureResultSource = "force"
	ExperimentSource         FeatureResultSource = "experiment"
	CyclicPrerequisiteSource FeatureResultSource = "cyclicPrerequisite"
	PrerequisiteSource       FeatureResultSource = "prerequisite"
)

// FeatureResult is the outcome of evaluating a single feature against
// a context (spec §3).
type FeatureResult struct {
	RuleID           string
	Value            value.Value
	Source           FeatureResultSource
	On               bool
	Off              bool
	Experiment       *Experiment
	ExperimentResult *ExperimentResult
}

func newFeatureResult(v value.Value, source FeatureResultSource, ruleID string, exp *Experiment, expResult *ExperimentResult) *FeatureResult {
	if v == nil {
		v = value.Null()
	}
	on := truthy(v)
	return &FeatureResult{
		RuleID:           ruleID,
		Value:            v,
		Source:           source,
		On:               on,
		Off:              !on,
		Experiment:       exp,
		ExperimentResult: expResult,
	}
}

// truthy mirrors JavaScript truthiness for the handful of JSON shapes
// a feature value can take: false, 0, "", null and undefined are
// falsy; everything else, including empty arrays/objects, is truthy.
func truthy(v value.Value) bool {
	switch vv := v.(type) {
	case value.NullValue, value.UndefinedValue:
		return false
	case value.BoolValue:
		return bool(vv)
	case value.NumValue:
		return vv != 0
	case value.StrValue:
		return vv != ""
	default:
		return true
	}
}
