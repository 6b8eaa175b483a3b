package fitsview

import (
	"fmt"
	"strings"
)

// bayerRedOffset gives the column and row of the red site in each 2x2 tile.
var bayerRedOffset = map[string][2]int{
	"RGGB": {0, 0},
	"GRBG": {1, 0},
	"GBRG": {0, 1},
	"BGGR": {1, 1},
}

// Debayer bilinearly interpolates a raw color-filter-array frame and
// returns a new luminance buffer, (R + G + B) / 3 per pixel. pattern is a
// BAYERPAT value such as "RGGB". Edge pixels use replicated neighbors.
func Debayer(buf *PixelBuffer, pattern string) (*PixelBuffer, error) {
	off, ok := bayerRedOffset[strings.ToUpper(strings.TrimSpace(pattern))]
	if !ok {
		return nil, fmt.Errorf("%w: bayer pattern %q", ErrUnsupported, pattern)
	}
	lum := debayerLuminance(buf.Data, buf.Width, buf.Height, off[0], off[1])
	return NewPixelBuffer(lum, buf.Width, buf.Height)
}

func debayerLuminance(data []float64, width, height, redX, redY int) []float64 {
	out := make([]float64, width*height)

	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	px := func(x, y int) float64 {
		return data[clamp(y, height)*width+clamp(x, width)]
	}
	cross := func(x, y int) float64 {
		return (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
	}
	diag := func(x, y int) float64 {
		return (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
	}
	horiz := func(x, y int) float64 { return (px(x-1, y) + px(x+1, y)) / 2 }
	vert := func(x, y int) float64 { return (px(x, y-1) + px(x, y+1)) / 2 }

	for y := 0; y < height; y++ {
		redRow := y%2 == redY
		for x := 0; x < width; x++ {
			redCol := x%2 == redX
			var r, g, b float64

			switch {
			case redRow && redCol:
				r, g, b = px(x, y), cross(x, y), diag(x, y)
			case redRow:
				r, g, b = horiz(x, y), px(x, y), vert(x, y)
			case redCol:
				r, g, b = vert(x, y), px(x, y), horiz(x, y)
			default:
				r, g, b = diag(x, y), cross(x, y), px(x, y)
			}

			out[y*width+x] = (r + g + b) / 3
		}
	}
	return out
}
