package fitsview

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	// Scales below robustEps are treated as zero.
	robustEps = 1.0e-20

	// MAD/0.6745 and mean absolute deviation/0.8 both estimate sigma for a
	// Gaussian population.
	madToSigma        = 0.6745
	meanAbsDevToSigma = 0.8

	// Points further than biweightTuning scaled MADs from the median get zero weight.
	biweightTuning     = 6.0
	minBiweightInliers = 3
)

// Median returns the median of values, averaging the two central elements
// for even counts. values is not modified. Empty input yields NaN.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

// RobustSigma estimates the median and the Tukey biweight sigma of sample.
//
// The scale seed is MAD/0.6745, falling back to the mean absolute deviation
// over 0.8 when the MAD vanishes. Points with u = d/(6*scale) outside [-1, 1]
// are rejected, and the biweight midvariance
//
//	m * Σ d²(1-u²)⁴ / (D(D-1)),  D = Σ (1-u²)(1-5u²)
//
// is taken over the m survivors. The estimate is invalid when the scale
// seed is zero or fewer than three points survive. A variance that is not
// a positive finite number is invalid as well.
//
// sample is sorted and overwritten with absolute deviations; pass a copy
// if the caller still needs it.
func RobustSigma(sample []float64) RobustEstimate {
	n := len(sample)
	est := RobustEstimate{SampleSize: n}
	if n == 0 {
		est.Median = math.NaN()
		return est
	}

	sort.Float64s(sample)
	med := medianSorted(sample)
	est.Median = med

	for i, v := range sample {
		sample[i] = math.Abs(v - med)
	}
	sort.Float64s(sample)

	scale := medianSorted(sample) / madToSigma
	if scale < robustEps {
		scale = stat.Mean(sample, nil) / meanAbsDevToSigma
		if scale < robustEps {
			return est
		}
	}

	c2 := biweightTuning * biweightTuning * scale * scale
	var num, den float64
	inliers := 0
	for _, d := range sample {
		u2 := d * d / c2
		if u2 > 1.0 {
			// sorted ascending, every later deviation is rejected too
			break
		}
		inliers++
		w := 1.0 - u2
		num += d * d * w * w * w * w
		den += w * (1.0 - 5.0*u2)
	}
	if inliers < minBiweightInliers {
		return est
	}

	est.Sigma, est.Valid = biweightSigma(inliers, num, den)
	return est
}

// biweightSigma finishes the midvariance sum. D of exactly 0 or 1 divides
// by zero, so only a positive finite variance is accepted.
func biweightSigma(inliers int, num, den float64) (float64, bool) {
	variance := float64(inliers) * num / (den * (den - 1.0))
	if !(variance > 0) || math.IsInf(variance, 1) {
		return 0, false
	}
	return math.Sqrt(variance), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
