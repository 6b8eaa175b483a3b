package fitsview

import (
	"fmt"
	"math"
)

// State is the engine lifecycle state.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateCut
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateLoaded:
		return "Loaded"
	case StateCut:
		return "Cut"
	default:
		return "Unknown"
	}
}

// PixelBuffer is a row-major 2D image of float64 samples with its cached
// data range. Non-finite samples are ignored when computing Min and Max.
type PixelBuffer struct {
	Data   []float64
	Width  int
	Height int
	Min    float64
	Max    float64
}

// NewPixelBuffer wraps data (not copied) and computes its min/max once.
func NewPixelBuffer(data []float64, width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d image", ErrInvalidImage, len(data), width, height)
	}
	lo, hi, ok := finiteMinMax(data)
	if !ok {
		return nil, fmt.Errorf("%w: no finite pixel values", ErrInvalidImage)
	}
	return &PixelBuffer{Data: data, Width: width, Height: height, Min: lo, Max: hi}, nil
}

// Len returns width*height.
func (b *PixelBuffer) Len() int { return len(b.Data) }

// At returns the sample at column x, row y.
func (b *PixelBuffer) At(x, y int) float64 { return b.Data[y*b.Width+x] }

func (b *PixelBuffer) String() string {
	return fmt.Sprintf("{Width=%d, Height=%d, Min=%g, Max=%g}", b.Width, b.Height, b.Min, b.Max)
}

func finiteMinMax(data []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if !isFinite(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		ok = true
	}
	return lo, hi, ok
}

// RobustEstimate is the location and scale of a pixel population.
// Valid is false when the spread could not be estimated.
type RobustEstimate struct {
	Median     float64
	Sigma      float64
	Valid      bool
	SampleSize int
}

func (e RobustEstimate) String() string {
	return fmt.Sprintf("{Median=%g, Sigma=%g, Valid=%t, SampleSize=%d}", e.Median, e.Sigma, e.Valid, e.SampleSize)
}

// CutLevels is a display window. Committed cuts always satisfy
// imageMin <= Low < High <= imageMax.
type CutLevels struct {
	Low  float64
	High float64
}

// Width returns High-Low.
func (c CutLevels) Width() float64 { return c.High - c.Low }

func (c CutLevels) String() string {
	return fmt.Sprintf("[%g, %g]", c.Low, c.High)
}

// Params configures an Engine.
type Params struct {
	// LowSigma and HighSigma are the cut multipliers applied below and above
	// the median. Non-positive values fall back to the defaults.
	LowSigma  float64
	HighSigma float64

	// MaxSampleLength bounds the statistics sample. 0 disables subsampling.
	MaxSampleLength int

	// Palette is the initial palette variant name.
	Palette string

	// MaxScaledBytes caps the scaled buffer allocation. 0 means unlimited.
	MaxScaledBytes int64

	// Seed seeds the sampler. 0 draws a seed from the runtime entropy source.
	Seed uint64

	// Logf receives verbose diagnostics. nil disables them.
	Logf func(format string, args ...any)
}

const (
	DefaultLowSigma        = 2.0
	DefaultHighSigma       = 5.0
	DefaultMaxSampleLength = 10000
	DefaultPalette         = PaletteNegBW
)

// NewParams creates Params with default values.
func NewParams() *Params {
	return &Params{
		LowSigma:        DefaultLowSigma,
		HighSigma:       DefaultHighSigma,
		MaxSampleLength: DefaultMaxSampleLength,
		Palette:         DefaultPalette,
	}
}

func (p *Params) String() string {
	return fmt.Sprintf("{LowSigma=%g, HighSigma=%g, MaxSampleLength=%d, Palette=%s, MaxScaledBytes=%d, Seed=%d}",
		p.LowSigma, p.HighSigma, p.MaxSampleLength, p.Palette, p.MaxScaledBytes, p.Seed)
}
