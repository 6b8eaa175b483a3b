//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"

	fv "fitsview/pkg/fitsview"
)

func loadNonFitsImage(path string) (*fv.PixelBuffer, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	switch src.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		return nil, fmt.Errorf("%w: %d channels in %s", fv.ErrUnsupported, src.Channels(), path)
	}

	floatMat := gocv.NewMat()
	defer floatMat.Close()
	gray.ConvertTo(&floatMat, gocv.MatTypeCV64F)

	data, err := floatMat.DataPtrFloat64()
	if err != nil {
		return nil, fmt.Errorf("reading pixels of %s: %w", path, err)
	}
	w, h := floatMat.Cols(), floatMat.Rows()
	pixels := make([]float64, w*h)
	copy(pixels, data[:w*h])

	return fv.NewPixelBuffer(pixels, w, h)
}
