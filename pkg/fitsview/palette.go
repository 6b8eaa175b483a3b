package fitsview

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"sync"
)

// Built-in palette variants.
const (
	PaletteBW    = "bw"
	PaletteNegBW = "negbw"
	PaletteHeat  = "heat"
)

// PaletteFunc returns the color of one palette index in [0, 255].
type PaletteFunc func(index int) color.RGBA

// Palette is a 256-entry lookup table from quantized index to color.
type Palette struct {
	Name   string
	Colors [PaletteLength]color.RGBA
}

// At returns the color for index i.
func (p *Palette) At(i uint8) color.RGBA { return p.Colors[i] }

// ColorPalette converts p for use with image.Paletted.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, PaletteLength)
	for i, c := range p.Colors {
		cp[i] = c
	}
	return cp
}

func (p *Palette) String() string { return p.Name }

var palettes = struct {
	sync.RWMutex
	gens map[string]PaletteFunc
}{
	gens: map[string]PaletteFunc{
		PaletteBW:    grayscale,
		PaletteNegBW: negativeGrayscale,
		PaletteHeat:  heat,
	},
}

// RegisterPalette adds or replaces a palette variant.
func RegisterPalette(name string, gen PaletteFunc) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("palette name must not be empty")
	}
	if gen == nil {
		return fmt.Errorf("palette %q: nil generator", name)
	}
	palettes.Lock()
	palettes.gens[name] = gen
	palettes.Unlock()
	return nil
}

// PaletteNames returns the registered variant names in sorted order.
func PaletteNames() []string {
	palettes.RLock()
	defer palettes.RUnlock()
	names := make([]string, 0, len(palettes.gens))
	for name := range palettes.gens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPalette generates the table for the named variant.
func NewPalette(name string) (*Palette, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	palettes.RLock()
	gen, ok := palettes.gens[key]
	palettes.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	p := &Palette{Name: key}
	for i := range p.Colors {
		p.Colors[i] = gen(i)
	}
	return p, nil
}

const paletteStep = 255.0 / (PaletteLength - 1)

func gray(v int) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return color.RGBA{uint8(v), uint8(v), uint8(v), 255}
}

func grayscale(i int) color.RGBA {
	return gray(int(float64(i) * paletteStep))
}

func negativeGrayscale(i int) color.RGBA {
	return gray(255 - int(float64(i)*paletteStep))
}

// heat ramps black -> red -> yellow -> white.
func heat(i int) color.RGBA {
	v := int(float64(i)*paletteStep) * 3
	channel := func(offset int) uint8 {
		c := v - offset
		switch {
		case c < 0:
			return 0
		case c > 255:
			return 255
		default:
			return uint8(c)
		}
	}
	return color.RGBA{channel(0), channel(255), channel(510), 255}
}
