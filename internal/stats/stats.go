package stats

import (
	"math"
	"sort"
)

// Source provides uniform samples in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Mean returns the arithmetic mean of values, or NaN for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance of values, or NaN for an empty slice
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// SampleVariance returns the unbiased (n-1) variance. Fewer than two values yield 0.
func SampleVariance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// StdDev returns the population standard deviation
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Percentile reads the order statistic at index floor(p*n) of an ascending slice.
// The index is clamped to the last element; no interpolation is performed.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Sorted returns an ascending copy of values
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// LinearTrend fits y = slope*x + intercept by ordinary least squares with x = 1..n.
// Fewer than two points give slope 0 and intercept equal to the first value (or 0).
func LinearTrend(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) < 2 {
		if len(values) == 1 {
			return 0, values[0]
		}
		return 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, values[0]
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// Normal draws from N(mean, std) with the Box-Muller transform
func Normal(src Source, mean, std float64) float64 {
	u := src.Float64()
	for u == 0 {
		u = src.Float64()
	}
	v := src.Float64()
	for v == 0 {
		v = src.Float64()
	}
	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return mean + z*std
}
