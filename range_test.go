package flagkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketRangeInRangeIsHalfOpen(t *testing.T) {
	r := BucketRange{Min: 0, Max: 0.5}
	require.True(t, r.InRange(0))
	require.True(t, r.InRange(0.49))
	require.False(t, r.InRange(0.5))
	require.False(t, r.InRange(-0.01))
}

func TestEqualWeights(t *testing.T) {
	w := equalWeights(4)
	require.Len(t, w, 4)
	total := 0.0
	for _, v := range w {
		require.InDelta(t, 0.25, v, 1e-9)
		total += v
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestBucketRangesDefaultsToEqualWeightsOnMismatch(t *testing.T) {
	ranges := bucketRanges(2, 1.0, []float64{0.1, 0.1, 0.1})
	require.Len(t, ranges, 2)
	require.InDelta(t, 0, ranges[0].Min, 1e-9)
	require.InDelta(t, 0.5, ranges[0].Max, 1e-9)
	require.InDelta(t, 0.5, ranges[1].Min, 1e-9)
	require.InDelta(t, 1.0, ranges[1].Max, 1e-9)
}

func TestBucketRangesToleratesWeightSumWithin1Percent(t *testing.T) {
	ranges := bucketRanges(2, 1.0, []float64{0.505, 0.5})
	require.InDelta(t, 0.505, ranges[0].Max-ranges[0].Min, 1e-9)
}

func TestBucketRangesRejectsWeightSumOutsideTolerance(t *testing.T) {
	ranges := bucketRanges(2, 1.0, []float64{0.9, 0.9})
	require.InDelta(t, 0.5, ranges[0].Max-ranges[0].Min, 1e-9)
	require.InDelta(t, 0.5, ranges[1].Max-ranges[1].Min, 1e-9)
}

func TestBucketRangesAppliesCoverage(t *testing.T) {
	ranges := bucketRanges(2, 0.5, []float64{0.5, 0.5})
	require.InDelta(t, 0, ranges[0].Min, 1e-9)
	require.InDelta(t, 0.25, ranges[0].Max, 1e-9)
	require.InDelta(t, 0.5, ranges[1].Min, 1e-9)
	require.InDelta(t, 0.75, ranges[1].Max, 1e-9)
}

func TestChooseVariationReturnsMinusOneWhenUncovered(t *testing.T) {
	ranges := bucketRanges(2, 0.1, []float64{0.5, 0.5})
	require.Equal(t, -1, chooseVariation(0.9, ranges))
}

func TestBucketRangeJSONRoundTrip(t *testing.T) {
	var r BucketRange
	require.NoError(t, r.UnmarshalJSON([]byte(`[0.25, 0.75]`)))
	require.Equal(t, BucketRange{Min: 0.25, Max: 0.75}, r)

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `[0.25, 0.75]`, string(data))
}
