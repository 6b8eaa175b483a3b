package fitsview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func rampView(t *testing.T) *View {
	t.Helper()
	e := newTestEngine(t, func(p *Params) { p.Palette = PaletteBW })
	if err := e.LoadData([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 4, 2, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Rescale(0, 7); err != nil {
		t.Fatal(err)
	}
	return e.View()
}

func grayAt(img image.Image, x, y int) uint8 {
	r, _, _, _ := img.At(x, y).RGBA()
	return uint8(r >> 8)
}

func TestView_Image(t *testing.T) {
	v := rampView(t)
	img, err := v.Image()
	if err != nil {
		t.Fatal(err)
	}
	if img.ColorIndexAt(3, 1) != 255 || img.ColorIndexAt(0, 0) != 0 {
		t.Fatalf("indices = %v", img.Pix)
	}
	if got := img.At(0, 1).(color.RGBA); got.R != 146 {
		t.Fatalf("color at (0,1) = %v, want gray 146", got)
	}
}

func TestRenderPreview_FlipAndAnnotate(t *testing.T) {
	v := rampView(t)
	img, err := RenderPreview(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2+annotationHeight {
		t.Fatalf("bounds = %v", b)
	}
	// buffer row 1 is drawn on top
	if got := grayAt(img, 0, 0); got != 146 {
		t.Errorf("top-left = %d, want 146", got)
	}
	if got := grayAt(img, 3, 1); got != 109 {
		t.Errorf("bottom-right = %d, want 109", got)
	}
}

func TestRenderPreview_Resize(t *testing.T) {
	v := rampView(t)
	img, err := RenderPreview(v, &PreviewOptions{Width: 8})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 8x4", b)
	}
	if got := grayAt(img, 7, 3); got != 255 {
		t.Errorf("bottom-right = %d, want 255", got)
	}
}

func TestRenderPreview_NativeCopyIsDetached(t *testing.T) {
	v := rampView(t)
	img, err := RenderPreview(v, &PreviewOptions{})
	if err != nil {
		t.Fatal(err)
	}
	p, ok := img.(*image.Paletted)
	if !ok {
		t.Fatalf("native preview is %T, want *image.Paletted", img)
	}
	p.SetColorIndex(0, 0, 200)
	if v.Scaled[0] != 0 {
		t.Fatalf("drawing on the preview changed the view buffer to %d", v.Scaled[0])
	}
}

func TestRenderPreview_RequiresCuts(t *testing.T) {
	e := newTestEngine(t, nil)
	if _, err := RenderPreview(e.View(), nil); err == nil {
		t.Fatal("rendered an unloaded view")
	}
	if err := e.LoadData([]float64{1, 2}, 2, 1, false); err != nil {
		t.Fatal(err)
	}
	if _, err := RenderPreview(e.View(), nil); err == nil {
		t.Fatal("rendered a view without cuts")
	}
}

func TestEncodePreview(t *testing.T) {
	img, err := RenderPreview(rampView(t), &PreviewOptions{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := EncodePreview(&buf, img, "PNG"); err != nil {
		t.Fatalf("EncodePreview: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got := grayAt(decoded, 1, 0); got != 36 {
		t.Errorf("decoded (1,0) = %d, want 36", got)
	}

	if err := EncodePreview(&buf, img, "bmp"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestWritePreview(t *testing.T) {
	img, err := RenderPreview(rampView(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	path := filepath.Join(dir, "preview.jpg")
	if err := WritePreview(path, img); err != nil {
		t.Fatalf("WritePreview: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("preview not written: %v", err)
	}

	bad := filepath.Join(dir, "preview.gif")
	if err := WritePreview(bad, img); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatal("failed preview left a file behind")
	}
}
