package features

import "math"

// epsilon guards ratio denominators the same way the feature tables
// upstream of the model always have.
const epsilon = 1e-10

type windowStats struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// rollingStats computes mean/std/min/max over the trailing window
// [i-w, i-1]. The current index is excluded: for the target series
// that value is the label.
func rollingStats(values []float64, i, w int) windowStats {
	start := i - w
	if start < 0 {
		start = 0
	}
	window := values[start:i]
	if len(window) == 0 {
		return windowStats{}
	}

	var sum float64
	min := window[0]
	max := window[0]
	for _, v := range window {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(window))

	return windowStats{
		Mean: mean,
		Std:  math.Sqrt(variance),
		Min:  min,
		Max:  max,
	}
}

// trailingMean averages values over [i-w, i-1].
func trailingMean(values []float64, i, w int) float64 {
	start := i - w
	if start < 0 {
		start = 0
	}
	window := values[start:i]
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// trailingSum sums values over [i-w, i-1].
func trailingSum(values []float64, i, w int) float64 {
	start := i - w
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range values[start:i] {
		sum += v
	}
	return sum
}

// safeRatio divides with an epsilon-guarded denominator.
func safeRatio(num, den float64) float64 {
	return num / (den + epsilon)
}

// sanitize replaces NaN and infinities with zero in place.
func sanitize(values []float64) []float64 {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = 0
		}
	}
	return values
}
