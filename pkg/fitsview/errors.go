package fitsview

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when a buffer allocation fails. The
	// previously committed state is left untouched.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidCutRange is returned for a cut pair with low >= high or a
	// pair lying entirely outside [imageMin, imageMax].
	ErrInvalidCutRange = errors.New("invalid cut range")

	// ErrDegenerateDistribution is a soft status: the robust estimator could
	// not produce a usable sigma and no data-driven cut was computed.
	ErrDegenerateDistribution = errors.New("degenerate pixel distribution")

	// ErrUnknownPalette is returned for an unregistered palette variant.
	ErrUnknownPalette = errors.New("unknown palette variant")

	// ErrInvalidImage is returned by the loader for malformed pixel data.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnsupported is returned by the loader for valid but unsupported input.
	ErrUnsupported = errors.New("unsupported image")
)

// CutRangeError describes a rejected cut pair.
type CutRangeError struct {
	Low, High float64
	Min, Max  float64
	Reason    string
}

func (e *CutRangeError) Error() string {
	return fmt.Sprintf("invalid cut range [%g, %g] for data range [%g, %g]: %s",
		e.Low, e.High, e.Min, e.Max, e.Reason)
}

func (e *CutRangeError) Unwrap() error { return ErrInvalidCutRange }
