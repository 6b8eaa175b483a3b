package fitsview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/astrogo/fitsio"
)

// writeFitsFile writes a single-HDU FITS image with astrogo/fitsio.
func writeFitsFile(t *testing.T, path string, bitpix int, axes []int, data any, cards ...fitsio.Card) {
	t.Helper()
	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	if err != nil {
		t.Fatalf("fitsio.Create: %v", err)
	}
	img := fitsio.NewImage(bitpix, axes)
	defer img.Close()
	if len(cards) > 0 {
		if err := img.Header().Append(cards...); err != nil {
			t.Fatalf("appending cards: %v", err)
		}
	}
	if err := img.Write(data); err != nil {
		t.Fatalf("writing image data: %v", err)
	}
	if err := f.Write(img); err != nil {
		t.Fatalf("writing HDU: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing FITS file: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fitsBytes assembles a primary HDU by hand from header cards and raw
// big-endian pixel data.
func fitsBytes(cards [][2]string, data []byte) []byte {
	var b bytes.Buffer
	for _, c := range cards {
		fmt.Fprintf(&b, "%-8s= %-70s", c[0], c[1])
	}
	fmt.Fprintf(&b, "%-80s", "END")
	padTo(&b, ' ')
	b.Write(data)
	padTo(&b, 0)
	return b.Bytes()
}

func padTo(b *bytes.Buffer, fill byte) {
	if rem := b.Len() % (fitsRecordLen * fitsRecordsPerBlock); rem != 0 {
		b.Write(bytes.Repeat([]byte{fill}, fitsRecordLen*fitsRecordsPerBlock-rem))
	}
}

func int16Data(values ...int16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestReadFits_Float64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f64.fits")
	data := []float64{1.5, -2.25, 3, 4, 5e10, 6, 7, 8, 9, 10, 11, 12}
	writeFitsFile(t, path, -64, []int{4, 3}, data,
		fitsio.Card{Name: "OBJECT", Value: "M31/core"},
		fitsio.Card{Name: "EXPTIME", Value: 30.0},
	)

	img, err := ReadFits(path)
	if err != nil {
		t.Fatalf("ReadFits: %v", err)
	}
	if img.Width != 4 || img.Height != 3 || img.Bitpix != -64 {
		t.Fatalf("geometry = %dx%d bitpix %d", img.Width, img.Height, img.Bitpix)
	}
	for i, want := range data {
		if got := img.Buffer.Data[i]; got != want {
			t.Errorf("pixel %d = %g, want %g", i, got, want)
		}
	}
	if img.Buffer.Min != -2.25 || img.Buffer.Max != 5e10 {
		t.Errorf("range = [%g, %g]", img.Buffer.Min, img.Buffer.Max)
	}
	if got := img.Metadata.ObjectName(); got != "M31/core" {
		t.Errorf("OBJECT = %q, want %q", got, "M31/core")
	}
	if exp, ok := img.Metadata.ExposureTime(); !ok || exp != 30 {
		t.Errorf("exposure = %g, %v", exp, ok)
	}
}

func TestReadFits_Float32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f32.fits")
	data := []float32{0.5, 1, 1.5, 2, 2.5, 3}
	writeFitsFile(t, path, -32, []int{3, 2}, data)

	img, err := ReadFits(path)
	if err != nil {
		t.Fatalf("ReadFits: %v", err)
	}
	if img.Buffer.At(2, 1) != 3 || img.Buffer.At(0, 1) != 2 {
		t.Fatalf("unexpected pixels %v", img.Buffer.Data)
	}
}

func TestReadFits_MetadataOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.fits")
	writeFitsFile(t, path, -64, []int{2, 2}, []float64{1, 2, 3, 4},
		fitsio.Card{Name: "BAYERPAT", Value: "RGGB"})

	img, err := ReadFitsMetadataOnly(path)
	if err != nil {
		t.Fatalf("ReadFitsMetadataOnly: %v", err)
	}
	if img.Buffer != nil {
		t.Fatal("pixel data read")
	}
	if img.Metadata.BayerPattern() != "RGGB" {
		t.Errorf("BAYERPAT = %q", img.Metadata.BayerPattern())
	}
}

func TestReadFitsFromBytes_ScaledIntegers(t *testing.T) {
	raw := fitsBytes([][2]string{
		{"SIMPLE", "T"},
		{"BITPIX", "16"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
		{"BZERO", "32768 / unsigned"},
		{"BSCALE", "1"},
		{"BLANK", "-1"},
		{"DATE-OBS", "'2024-03-01T21:15:00'"},
	}, int16Data(-32768, 0, -1, 100))

	img, err := ReadFitsFromBytes(raw)
	if err != nil {
		t.Fatalf("ReadFitsFromBytes: %v", err)
	}
	d := img.Buffer.Data
	if d[0] != 0 || d[1] != 32768 || !math.IsNaN(d[2]) || d[3] != 32868 {
		t.Fatalf("physical values = %v", d)
	}
	if img.Buffer.Min != 0 || img.Buffer.Max != 32868 {
		t.Errorf("range = [%g, %g], want [0, 32868]", img.Buffer.Min, img.Buffer.Max)
	}
	if ts, ok := img.Metadata.GetDateTime("DATE-OBS"); !ok || ts.Hour() != 21 {
		t.Errorf("DATE-OBS = %v, %v", ts, ok)
	}
}

func TestReadFitsFrom_Axes(t *testing.T) {
	header := func(naxis3 string) [][2]string {
		return [][2]string{
			{"SIMPLE", "T"},
			{"BITPIX", "8"},
			{"NAXIS", "3"},
			{"NAXIS1", "2"},
			{"NAXIS2", "1"},
			{"NAXIS3", naxis3},
		}
	}

	img, err := ReadFitsFrom(bytes.NewReader(fitsBytes(header("1"), []byte{7, 9})))
	if err != nil {
		t.Fatalf("degenerate third axis: %v", err)
	}
	if img.Buffer.Data[1] != 9 {
		t.Errorf("pixels = %v", img.Buffer.Data)
	}

	_, err = ReadFitsFrom(bytes.NewReader(fitsBytes(header("2"), []byte{1, 2, 3, 4})))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("cube err = %v, want ErrUnsupported", err)
	}
}

func TestReadFitsFrom_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{
			name: "not fits",
			raw:  []byte(strings.Repeat("x", fitsRecordLen*fitsRecordsPerBlock)),
			want: ErrInvalidImage,
		},
		{
			name: "one axis",
			raw:  fitsBytes([][2]string{{"SIMPLE", "T"}, {"BITPIX", "8"}, {"NAXIS", "1"}, {"NAXIS1", "4"}}, []byte{1, 2, 3, 4}),
			want: ErrInvalidImage,
		},
		{
			name: "bad bitpix",
			raw:  fitsBytes([][2]string{{"SIMPLE", "T"}, {"BITPIX", "12"}, {"NAXIS", "2"}, {"NAXIS1", "1"}, {"NAXIS2", "1"}}, []byte{1, 2}),
			want: ErrUnsupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFitsFromBytes(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadFitsFromBytes([]byte("SIMPLE  =")); err == nil {
		t.Fatal("truncated header accepted")
	}
}

func TestHeaderValue(t *testing.T) {
	tests := []struct {
		field, raw, parsed string
	}{
		{"                   42 / answer", "42", "42"},
		{"'M31/core'           / object", "'M31/core'", "M31/core"},
		{"'O''Neil  '", "'O''Neil  '", "O'Neil"},
		{"                    T", "T", "True"},
	}
	for _, tt := range tests {
		raw := headerValue(tt.field)
		if raw != tt.raw {
			t.Errorf("headerValue(%q) = %q, want %q", tt.field, raw, tt.raw)
		}
		if got := parseFitsValue(raw); got != tt.parsed {
			t.Errorf("parseFitsValue(%q) = %q, want %q", raw, got, tt.parsed)
		}
	}
}
