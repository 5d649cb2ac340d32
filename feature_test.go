package flagkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/internal/value"
)

func TestFeatureUnmarshalDefaultValueOnly(t *testing.T) {
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(`{"defaultValue":"red"}`), &f))
	require.Equal(t, value.Str("red"), f.DefaultValue)
	require.Empty(t, f.Rules)
}

func TestFeatureUnmarshalMissingDefaultValueBecomesNull(t *testing.T) {
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(`{}`), &f))
	require.Equal(t, value.Null(), f.DefaultValue)
}

func TestFeatureUnmarshalRulesWithExperiment(t *testing.T) {
	raw := `{
		"defaultValue": false,
		"rules": [
			{
				"condition": {"country": "US"},
				"variations": [false, true],
				"weights": [0.5, 0.5],
				"coverage": 1,
				"hashAttribute": "id",
				"key": "my-experiment"
			}
		]
	}`
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	require.Len(t, f.Rules, 1)

	rule := f.Rules[0]
	require.Equal(t, "id", rule.HashAttribute)
	require.Equal(t, "my-experiment", rule.Key)
	require.Equal(t, []value.Value{value.False(), value.True()}, rule.Variations)
	require.Equal(t, []float64{0.5, 0.5}, rule.Weights)
	require.NotNil(t, rule.Coverage)
	require.InDelta(t, 1.0, *rule.Coverage, 1e-9)
}

func TestFeatureRuleUnmarshalDefaultsHashVersionToOne(t *testing.T) {
	var r FeatureRule
	require.NoError(t, json.Unmarshal([]byte(`{"force": 1}`), &r))
	require.Equal(t, 1, r.HashVersion)
	require.Equal(t, value.Num(1), r.Force)
}

func TestFeatureRuleUnmarshalParentConditions(t *testing.T) {
	raw := `{
		"force": true,
		"parentConditions": [
			{"id": "parent-feature", "condition": {"value": true}, "gate": true}
		]
	}`
	var r FeatureRule
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	require.Len(t, r.ParentConditions, 1)
	require.Equal(t, "parent-feature", r.ParentConditions[0].ID)
	require.True(t, r.ParentConditions[0].Gate)
}

func TestFeatureMapUnmarshalsMultipleFeatures(t *testing.T) {
	raw := `{
		"feature-a": {"defaultValue": 1},
		"feature-b": {"defaultValue": "on"}
	}`
	var fm FeatureMap
	require.NoError(t, json.Unmarshal([]byte(raw), &fm))
	require.Len(t, fm, 2)
	require.Equal(t, value.Num(1), fm["feature-a"].DefaultValue)
	require.Equal(t, value.Str("on"), fm["feature-b"].DefaultValue)
}
