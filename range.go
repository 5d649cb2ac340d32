package flagkit

import "encoding/json"

// BucketRange is a half-open interval [Min, Max) used for variation
// assignment, namespace membership and filter membership (spec §3).
type BucketRange struct {
	Min float64
	Max float64
}

// InRange reports half-open membership: n == Max is never in range.
func (r BucketRange) InRange(n float64) bool {
	return n >= r.Min && n < r.Max
}

func (r *BucketRange) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

func (r BucketRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

// equalWeights returns n equal shares that sum to 1.
func equalWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	share := 1.0 / float64(n)
	for i := range w {
		w[i] = share
	}
	return w
}

// bucketRanges converts coverage and variation weights into bucket
// ranges (spec §4.2). Weights that are missing, mismatched in length,
// or that don't sum to ~1.0 (tolerance ±0.01) are silently replaced by
// equal weights.
func bucketRanges(numVariations int, coverage float64, weights []float64) []BucketRange {
	if coverage < 0 {
		coverage = 0
	}
	if coverage > 1 {
		coverage = 1
	}

	if len(weights) == 0 || len(weights) != numVariations {
		weights = equalWeights(numVariations)
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total < 0.99 || total > 1.01 {
		weights = equalWeights(numVariations)
	}

	acc := 0.0
	ranges := make([]BucketRange, len(weights))
	for i, w := range weights {
		ranges[i] = BucketRange{acc, acc + coverage*w}
		acc += w
	}
	return ranges
}

// chooseVariation returns the index of the first range containing n,
// or -1 if none does.
func chooseVariation(n float64, ranges []BucketRange) int {
	for i := range ranges {
		if ranges[i].InRange(n) {
			return i
		}
	}
	return -1
}
