package main

import (
	"fmt"
	"path/filepath"
	"strings"

	fv "fitsview/pkg/fitsview"
)

var fitsExtensions = map[string]bool{".fits": true, ".fit": true, ".fts": true}

// loadInto reads path and loads it into eng. Metadata is nil for non-FITS input.
func loadInto(eng *fv.Engine, path string, autoscale bool) (*fv.FitsMetadata, error) {
	var (
		buf  *fv.PixelBuffer
		meta *fv.FitsMetadata
	)

	if fitsExtensions[strings.ToLower(filepath.Ext(path))] {
		img, err := fv.ReadFits(path)
		if err != nil {
			return nil, err
		}
		logVerbose("FITS loaded: %dx%d, BITPIX %d", img.Width, img.Height, img.Bitpix)
		buf, meta = img.Buffer, img.Metadata
	} else {
		var err error
		buf, err = loadNonFitsImage(path)
		if err != nil {
			return nil, err
		}
	}

	pattern := debayerPat
	if strings.EqualFold(pattern, "auto") {
		pattern = ""
		if meta != nil {
			pattern = meta.BayerPattern()
		}
	}
	if pattern != "" {
		var err error
		if buf, err = fv.Debayer(buf, pattern); err != nil {
			return nil, fmt.Errorf("debayer: %w", err)
		}
		logVerbose("debayered with pattern %s", pattern)
	}

	return meta, eng.LoadNamed(buf, path, autoscale)
}
