package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile (0 <= q <= 1) using linear
// interpolation between closest ranks. values is not modified.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	q = math.Max(0, math.Min(1, q))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Percentile returns the p-th percentile (0-100)
func Percentile(values []float64, p float64) float64 {
	return Quantile(values, p/100)
}

// Median returns the 50th percentile
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// NormalizedEntropy returns the Shannon entropy of the weights divided by
// log2(n), in [0, 1]. Zero weights still count as categories.
func NormalizedEntropy(weights []float64) float64 {
	if len(weights) <= 1 {
		return 0
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}

	var entropy float64
	for _, w := range weights {
		if w > 0 {
			p := w / sum
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / math.Log2(float64(len(weights)))
}
