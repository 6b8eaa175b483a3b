package fitsview

import (
	"fmt"
	"math"
)

// SigmaMultipliers scale the robust sigma below (Low) and above (High) the
// median. The defaults are asymmetric: sky frames are faint-dominated with
// rare bright sources.
type SigmaMultipliers struct {
	Low  float64
	High float64
}

// DefaultSigmaMultipliers returns {2, 5}.
func DefaultSigmaMultipliers() SigmaMultipliers {
	return SigmaMultipliers{Low: DefaultLowSigma, High: DefaultHighSigma}
}

// With returns m with low and high replaced, ignoring non-positive values.
func (m SigmaMultipliers) With(low, high float64) SigmaMultipliers {
	if low > 0 {
		m.Low = low
	}
	if high > 0 {
		m.High = high
	}
	return m
}

func (m SigmaMultipliers) String() string {
	return fmt.Sprintf("{Low=%g, High=%g}", m.Low, m.High)
}

// ComputeCuts turns a robust estimate into an unclamped cut pair.
// An invalid estimate yields ErrDegenerateDistribution and no cuts.
func ComputeCuts(est RobustEstimate, k SigmaMultipliers) (CutLevels, error) {
	if !est.Valid {
		return CutLevels{}, fmt.Errorf("%w: median=%g sigma=%g over %d samples",
			ErrDegenerateDistribution, est.Median, est.Sigma, est.SampleSize)
	}
	return CutLevels{
		Low:  est.Median - k.Low*est.Sigma,
		High: est.Median + k.High*est.Sigma,
	}, nil
}

// ClampCuts checks a requested pair against the data range [lo, hi] and
// clamps it into that range. The returned error is a *CutRangeError.
func ClampCuts(req CutLevels, lo, hi float64) (CutLevels, error) {
	reject := func(reason string) (CutLevels, error) {
		return CutLevels{}, &CutRangeError{Low: req.Low, High: req.High, Min: lo, Max: hi, Reason: reason}
	}

	switch {
	case math.IsNaN(req.Low) || math.IsNaN(req.High):
		return reject("cut is NaN")
	case req.Low >= req.High:
		return reject("low cut is not below high cut")
	case req.Low >= hi:
		return reject("low cut is at or above the image maximum")
	case req.High <= lo:
		return reject("high cut is at or below the image minimum")
	}

	cuts := req
	if cuts.Low < lo {
		cuts.Low = lo
	}
	if cuts.High > hi {
		cuts.High = hi
	}
	if cuts.Low >= cuts.High {
		return reject("window collapses to zero width inside the data range")
	}
	return cuts, nil
}
