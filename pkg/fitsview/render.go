package fitsview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const annotationHeight = 20

// Image wraps the scaled buffer and palette of v as a paletted image. Row 0
// of the result is row 0 of the pixel buffer. The pixel slice is shared.
func (v *View) Image() (*image.Paletted, error) {
	if v.State != StateCut {
		return nil, fmt.Errorf("no scaled image in state %s", v.State)
	}
	w, h := v.Pixels.Width, v.Pixels.Height
	return &image.Paletted{
		Pix:     v.Scaled,
		Stride:  w,
		Rect:    image.Rect(0, 0, w, h),
		Palette: v.Palette.ColorPalette(),
	}, nil
}

// PreviewOptions controls RenderPreview.
type PreviewOptions struct {
	// Width of the output in pixels, keeping the aspect ratio. 0 keeps the
	// native size.
	Width int

	// FlipY puts buffer row 0 at the bottom, the FITS display convention.
	FlipY bool

	// Annotate appends a strip showing the cuts and palette.
	Annotate bool
}

// NewPreviewOptions returns native-size, flipped, annotated options.
func NewPreviewOptions() *PreviewOptions {
	return &PreviewOptions{FlipY: true, Annotate: true}
}

// RenderPreview renders v into a displayable image. The result never shares
// pixels with v.
func RenderPreview(v *View, opts *PreviewOptions) (image.Image, error) {
	if opts == nil {
		opts = NewPreviewOptions()
	}
	src, err := v.Image()
	if err != nil {
		return nil, err
	}

	var out image.Image = src
	if opts.FlipY {
		out = imaging.FlipV(out)
	}
	if opts.Width > 0 && opts.Width != src.Rect.Dx() {
		filter := imaging.Lanczos
		if opts.Width > src.Rect.Dx() {
			// keep pixels crisp when zooming in
			filter = imaging.NearestNeighbor
		}
		out = imaging.Resize(out, opts.Width, 0, filter)
	}
	if opts.Annotate {
		out = annotate(out, v)
	}
	if out == image.Image(src) {
		own := *src
		own.Pix = append([]uint8(nil), src.Pix...)
		out = &own
	}
	return out, nil
}

func annotate(img image.Image, v *View) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+annotationHeight))
	draw.Draw(canvas, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)
	strip := image.Rect(0, b.Dy(), b.Dx(), b.Dy()+annotationHeight)
	draw.Draw(canvas, strip, image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	label := fmt.Sprintf("cuts %.4g..%.4g  %s", v.Cuts.Low, v.Cuts.High, v.Palette.Name)
	if v.Estimate.Valid {
		label += fmt.Sprintf("  med %.4g sig %.3g", v.Estimate.Median, v.Estimate.Sigma)
	}
	drawText(canvas, basicfont.Face7x13, label, 4, b.Dy()+14, color.RGBA{220, 220, 220, 255})
	return canvas
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// EncodePreview writes img as "png" or "jpeg".
func EncodePreview(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		return fmt.Errorf("%w: preview format %q", ErrUnsupported, format)
	}
}

// WritePreview encodes img to path, choosing the format from its extension.
func WritePreview(path string, img image.Image) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview file: %w", err)
	}
	if err := EncodePreview(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
