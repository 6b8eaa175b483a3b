package fitsview

import (
	"fmt"
	"math"
)

// PaletteLength is the number of quantization levels and palette entries.
const PaletteLength = 256

const maxIndex = PaletteLength - 1

// Quantize maps every pixel through cuts onto [0, 255]. Values at or below
// cuts.Low map to 0, values at or above cuts.High map to 255, and values in
// between are rounded half away from zero. NaN maps to 0.
func Quantize(pixels []float64, cuts CutLevels) ([]uint8, error) {
	return QuantizeWithLimit(pixels, cuts, 0)
}

// QuantizeWithLimit is Quantize with an allocation cap in bytes (0 = none).
// Exceeding the cap, or a failing allocation, yields ErrOutOfMemory.
func QuantizeWithLimit(pixels []float64, cuts CutLevels, limit int64) ([]uint8, error) {
	if !(cuts.Low < cuts.High) {
		return nil, fmt.Errorf("%w: quantizing with window %v", ErrInvalidCutRange, cuts)
	}
	out, err := allocIndexBuffer(len(pixels), limit)
	if err != nil {
		return nil, err
	}
	quantizeInto(out, pixels, cuts)
	return out, nil
}

// QuantizeValue maps a single value through cuts.
func QuantizeValue(x float64, cuts CutLevels) uint8 {
	return quantizeOne(x, cuts.Low, cuts.High, cuts.High-cuts.Low)
}

func quantizeInto(dst []uint8, pixels []float64, cuts CutLevels) {
	low, high := cuts.Low, cuts.High
	span := high - low
	for i, x := range pixels {
		dst[i] = quantizeOne(x, low, high, span)
	}
}

func quantizeOne(x, low, high, span float64) uint8 {
	if x <= low {
		return 0
	}
	if x >= high {
		return maxIndex
	}
	if math.IsNaN(x) {
		return 0
	}
	v := math.Round((x - low) / span * maxIndex)
	if v < 0 {
		return 0
	}
	if v > maxIndex {
		return maxIndex
	}
	return uint8(v)
}

func allocIndexBuffer(n int, limit int64) (buf []uint8, err error) {
	if limit > 0 && int64(n) > limit {
		return nil, fmt.Errorf("%w: scaled buffer of %d bytes exceeds limit of %d", ErrOutOfMemory, n, limit)
	}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: allocating %d bytes: %v", ErrOutOfMemory, n, r)
		}
	}()
	return make([]uint8, n), nil
}
