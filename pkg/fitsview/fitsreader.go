package fitsview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	fitsRecordLen       = 80
	fitsRecordsPerBlock = 36
)

// FitsMetadata holds parsed FITS header key-value pairs.
type FitsMetadata struct {
	Headers map[string]string
}

// NewFitsMetadata creates an empty FitsMetadata.
func NewFitsMetadata() *FitsMetadata {
	return &FitsMetadata{Headers: make(map[string]string)}
}

func (m *FitsMetadata) GetString(key string) string {
	if v, ok := m.Headers[strings.ToUpper(key)]; ok {
		return v
	}
	return ""
}

func (m *FitsMetadata) GetDouble(key string) (float64, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (m *FitsMetadata) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

// GetDateTime parses DATE-OBS style values, with or without a zone suffix.
func (m *FitsMetadata) GetDateTime(key string) (time.Time, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return time.Time{}, false
	}
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *FitsMetadata) ObjectName() string    { return m.GetString("OBJECT") }
func (m *FitsMetadata) ImageType() string     { return m.GetString("IMAGETYP") }
func (m *FitsMetadata) CameraName() string    { return m.GetString("INSTRUME") }
func (m *FitsMetadata) Filter() string        { return m.GetString("FILTER") }
func (m *FitsMetadata) TelescopeName() string { return m.GetString("TELESCOP") }
func (m *FitsMetadata) BayerPattern() string  { return m.GetString("BAYERPAT") }

func (m *FitsMetadata) ExposureTime() (float64, bool) {
	if v, ok := m.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return m.GetDouble("EXPOSURE")
}

// FitsImage is the primary image HDU of a FITS file.
type FitsImage struct {
	// Buffer is nil when only the header was read.
	Buffer   *PixelBuffer
	Width    int
	Height   int
	Bitpix   int
	Metadata *FitsMetadata
}

// ReadFits reads FITS headers and pixel data from a file.
func ReadFits(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	img, err := readFitsFromReader(f, false)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return img, nil
}

// ReadFitsMetadataOnly reads only FITS headers without loading pixel data.
func ReadFitsMetadataOnly(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f, true)
}

// ReadFitsFromBytes reads FITS headers and pixel data from a byte slice.
func ReadFitsFromBytes(data []byte) (*FitsImage, error) {
	return readFitsFromReader(bytes.NewReader(data), false)
}

// ReadFitsFrom reads FITS headers and pixel data from r.
func ReadFitsFrom(r io.Reader) (*FitsImage, error) {
	return readFitsFromReader(r, false)
}

type fitsHeader struct {
	bitpix int
	naxisn []int
	bzero  float64
	bscale float64
	blank  *int64
}

func readFitsFromReader(r io.Reader, skipPixelData bool) (*FitsImage, error) {
	hdr := fitsHeader{bscale: 1.0}
	metadata := NewFitsMetadata()
	naxis := -1
	headerDone := false
	first := true

	recordBuf := make([]byte, fitsRecordLen)

	for !headerDone {
		for i := 0; i < fitsRecordsPerBlock; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if first {
				first = false
				if keyword != "SIMPLE" {
					return nil, fmt.Errorf("%w: missing SIMPLE keyword", ErrInvalidImage)
				}
			}

			if keyword == "END" {
				headerDone = true
				if remaining := fitsRecordsPerBlock - 1 - i; remaining > 0 {
					if _, err := io.CopyN(io.Discard, r, int64(remaining*fitsRecordLen)); err != nil {
						return nil, fmt.Errorf("skipping FITS header padding: %w", err)
					}
				}
				break
			}

			if record[8] != '=' || record[9] != ' ' {
				continue
			}
			rawValue := headerValue(record[10:])
			if parsed := parseFitsValue(rawValue); keyword != "" && parsed != "" {
				metadata.Headers[strings.ToUpper(keyword)] = parsed
			}

			switch {
			case keyword == "BITPIX":
				hdr.bitpix, _ = strconv.Atoi(rawValue)
			case keyword == "NAXIS":
				naxis, _ = strconv.Atoi(rawValue)
				if naxis > 0 && naxis <= 999 {
					hdr.naxisn = make([]int, naxis)
				}
			case strings.HasPrefix(keyword, "NAXIS"):
				n, err := strconv.Atoi(keyword[5:])
				if err == nil && n >= 1 && n <= len(hdr.naxisn) {
					hdr.naxisn[n-1], _ = strconv.Atoi(rawValue)
				}
			case keyword == "BZERO":
				hdr.bzero, _ = strconv.ParseFloat(rawValue, 64)
			case keyword == "BSCALE":
				hdr.bscale, _ = strconv.ParseFloat(rawValue, 64)
			case keyword == "BLANK":
				if v, err := strconv.ParseInt(rawValue, 10, 64); err == nil {
					hdr.blank = &v
				}
			}
		}
	}

	if naxis < 2 || len(hdr.naxisn) != naxis || hdr.naxisn[0] <= 0 || hdr.naxisn[1] <= 0 {
		return nil, fmt.Errorf("%w: NAXIS=%d, axes=%v", ErrInvalidImage, naxis, hdr.naxisn)
	}
	for i, n := range hdr.naxisn[2:] {
		if n != 1 {
			return nil, fmt.Errorf("%w: NAXIS%d=%d, only 2D images are supported", ErrUnsupported, i+3, n)
		}
	}

	img := &FitsImage{
		Width:    hdr.naxisn[0],
		Height:   hdr.naxisn[1],
		Bitpix:   hdr.bitpix,
		Metadata: metadata,
	}
	if skipPixelData {
		return img, nil
	}

	pixels, err := readFitsPixels(r, hdr, img.Width*img.Height)
	if err != nil {
		return nil, err
	}
	img.Buffer, err = NewPixelBuffer(pixels, img.Width, img.Height)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func readFitsPixels(r io.Reader, hdr fitsHeader, numPixels int) ([]float64, error) {
	bytesPer := abs(hdr.bitpix) / 8
	switch hdr.bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("%w: BITPIX %d", ErrUnsupported, hdr.bitpix)
	}

	rawBytes, err := allocBytes(numPixels * bytesPer)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, rawBytes); err != nil {
		return nil, fmt.Errorf("reading BITPIX %d pixel data: %w", hdr.bitpix, err)
	}
	pixels, err := allocFloats(numPixels)
	if err != nil {
		return nil, err
	}

	// Integer samples equal to BLANK are undefined and become NaN.
	physical := func(raw int64) float64 {
		if hdr.blank != nil && raw == *hdr.blank {
			return math.NaN()
		}
		return float64(raw)*hdr.bscale + hdr.bzero
	}

	be := binary.BigEndian
	switch hdr.bitpix {
	case 8:
		for i := range pixels {
			pixels[i] = physical(int64(rawBytes[i]))
		}
	case 16:
		for i := range pixels {
			pixels[i] = physical(int64(int16(be.Uint16(rawBytes[i*2:]))))
		}
	case 32:
		for i := range pixels {
			pixels[i] = physical(int64(int32(be.Uint32(rawBytes[i*4:]))))
		}
	case 64:
		for i := range pixels {
			pixels[i] = physical(int64(be.Uint64(rawBytes[i*8:])))
		}
	case -32:
		for i := range pixels {
			v := float64(math.Float32frombits(be.Uint32(rawBytes[i*4:])))
			pixels[i] = v*hdr.bscale + hdr.bzero
		}
	case -64:
		for i := range pixels {
			v := math.Float64frombits(be.Uint64(rawBytes[i*8:]))
			pixels[i] = v*hdr.bscale + hdr.bzero
		}
	}
	return pixels, nil
}

// headerValue strips the inline comment from the value field of a record.
// A slash inside a quoted string is part of the value.
func headerValue(field string) string {
	s := strings.TrimSpace(field)
	if strings.HasPrefix(s, "'") {
		for i := 1; i < len(s); i++ {
			if s[i] != '\'' {
				continue
			}
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			return s[:i+1]
		}
		return s
	}
	return strings.TrimSpace(strings.SplitN(s, "/", 2)[0])
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.ReplaceAll(strings.TrimRight(rawValue[1:endQuote], " "), "''", "'")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}

func allocBytes(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: allocating %d bytes: %v", ErrOutOfMemory, n, r)
		}
	}()
	return make([]byte, n), nil
}

func allocFloats(n int) (buf []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: allocating %d pixels: %v", ErrOutOfMemory, n, r)
		}
	}()
	return make([]float64, n), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
