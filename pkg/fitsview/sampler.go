package fitsview

import (
	"fmt"
	"math/rand/v2"
)

// NewRand returns a PCG-backed generator. A zero seed draws one from the
// runtime entropy source.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomSample draws n values from population uniformly with replacement.
// The result always has exactly n elements, so small populations are
// over-sampled. A nil rng uses the global source. An empty population
// yields nil. A sample too large to allocate yields ErrOutOfMemory.
func RandomSample(population []float64, n int, rng *rand.Rand) ([]float64, error) {
	if len(population) == 0 || n <= 0 {
		return nil, nil
	}
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	sample, err := allocFloats(n)
	if err != nil {
		return nil, fmt.Errorf("sampling %d pixels: %w", n, err)
	}
	for i := range sample {
		sample[i] = population[intN(len(population))]
	}
	return sample, nil
}

// finiteSample copies the finite values of data into a new slice.
func finiteSample(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
