package fitsview

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// View is an immutable snapshot of the committed engine state. Engines never
// modify a View after publishing it, so renderers may hold one without locking.
type View struct {
	State    State
	Filename string
	Pixels   *PixelBuffer

	// Cuts holds the full data range until the first cut. Scaled is set
	// once State is StateCut.
	Cuts   CutLevels
	Scaled []uint8

	// Estimate is the robust estimate behind the last autoscale, if any.
	Estimate RobustEstimate

	Palette *Palette
}

// Engine turns a loaded PixelBuffer into an 8-bit indexed image.
//
// State moves Unloaded -> Loaded -> Cut. Every change builds a new View and
// swaps it in on success, so a failed rescale or palette change leaves the
// previous View in place. Mutating calls are serialized; View is lock-free.
type Engine struct {
	mu        sync.Mutex
	view      atomic.Pointer[View]
	sigma     SigmaMultipliers
	maxSample int
	maxScaled int64
	rng       *rand.Rand
	logf      func(format string, args ...any)
}

// NewEngine creates an Unloaded engine. A nil p uses NewParams().
func NewEngine(p *Params) (*Engine, error) {
	if p == nil {
		p = NewParams()
	}
	paletteName := p.Palette
	if paletteName == "" {
		paletteName = DefaultPalette
	}
	pal, err := NewPalette(paletteName)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sigma:     DefaultSigmaMultipliers().With(p.LowSigma, p.HighSigma),
		maxSample: max(p.MaxSampleLength, 0),
		maxScaled: p.MaxScaledBytes,
		rng:       NewRand(p.Seed),
		logf:      p.Logf,
	}
	e.view.Store(&View{State: StateUnloaded, Palette: pal})
	return e, nil
}

func (e *Engine) logVerbose(format string, args ...any) {
	if e.logf != nil {
		e.logf(format, args...)
	}
}

// View returns the current committed snapshot.
func (e *Engine) View() *View { return e.view.Load() }

func (e *Engine) State() State        { return e.View().State }
func (e *Engine) IsLoaded() bool      { return e.View().State != StateUnloaded }
func (e *Engine) Filename() string    { return e.View().Filename }
func (e *Engine) Palette() *Palette   { return e.View().Palette }
func (e *Engine) PaletteName() string { return e.View().Palette.Name }

// Cuts returns the current cut levels; ok is false before the first
// successful rescale, when cuts is the full data range.
func (e *Engine) Cuts() (cuts CutLevels, ok bool) {
	v := e.View()
	return v.Cuts, v.State == StateCut
}

// Scaled returns the committed index buffer, or nil. Callers must not modify it.
func (e *Engine) Scaled() []uint8 { return e.View().Scaled }

// CutSigma returns the active sigma multipliers.
func (e *Engine) CutSigma() SigmaMultipliers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sigma
}

// SetCutSigma updates the sigma multipliers. Non-positive values are ignored.
// Committed cuts are not recomputed until the next Autoscale.
func (e *Engine) SetCutSigma(low, high float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sigma = e.sigma.With(low, high)
}

// MaxSampleLength returns the statistics sample bound.
func (e *Engine) MaxSampleLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxSample
}

// SetMaxSampleLength bounds the statistics sample. 0 (or a negative value)
// disables subsampling and uses every finite pixel.
func (e *Engine) SetMaxSampleLength(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxSample = max(n, 0)
}

// SetRand replaces the sampler's random source.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rng
}

// SetPalette activates the named palette variant. The scaled buffer is kept
// as is. An unknown name returns ErrUnknownPalette and changes nothing.
// It also works while Unloaded, so a palette can be chosen before the first load.
func (e *Engine) SetPalette(name string) error {
	pal, err := NewPalette(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.view.Load()
	next.Palette = pal
	e.view.Store(&next)
	return nil
}

// Load installs buf and resets the engine to Loaded, discarding prior cuts.
// With autoscale set it then runs Autoscale; an autoscale failure is
// returned but the image stays loaded. A nil buf unloads the engine.
func (e *Engine) Load(buf *PixelBuffer, autoscale bool) error {
	return e.load(buf, "", autoscale)
}

// LoadNamed is Load with a display name (usually the source path).
func (e *Engine) LoadNamed(buf *PixelBuffer, name string, autoscale bool) error {
	return e.load(buf, name, autoscale)
}

// LoadData wraps data in a PixelBuffer and loads it.
func (e *Engine) LoadData(data []float64, width, height int, autoscale bool) error {
	buf, err := NewPixelBuffer(data, width, height)
	if err != nil {
		e.unload()
		return err
	}
	return e.load(buf, "", autoscale)
}

// LoadFile reads a FITS file and loads its primary image.
func (e *Engine) LoadFile(path string, autoscale bool) error {
	img, err := ReadFits(path)
	if err != nil {
		e.unload()
		return err
	}
	return e.load(img.Buffer, path, autoscale)
}

func (e *Engine) unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Store(&View{State: StateUnloaded, Palette: e.view.Load().Palette})
}

func (e *Engine) load(buf *PixelBuffer, filename string, autoscale bool) error {
	if buf == nil {
		e.unload()
		return fmt.Errorf("%w: nil pixel buffer", ErrInvalidImage)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.view.Store(&View{
		State:    StateLoaded,
		Filename: filename,
		Pixels:   buf,
		Cuts:     CutLevels{Low: buf.Min, High: buf.Max},
		Palette:  e.view.Load().Palette,
	})
	e.logVerbose("loaded %s %v", filename, buf)

	if !autoscale {
		return nil
	}
	if _, err := e.autoscaleLocked(); err != nil {
		return fmt.Errorf("autoscale: %w", err)
	}
	return nil
}

// EstimateCuts samples the loaded image and derives data-driven cuts without
// committing them. A degenerate distribution yields ErrDegenerateDistribution
// together with the invalid estimate, and a sample that cannot be allocated
// yields ErrOutOfMemory. On Unloaded it is a no-op.
func (e *Engine) EstimateCuts() (CutLevels, RobustEstimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view.Load()
	if v.State == StateUnloaded {
		return CutLevels{}, RobustEstimate{}, nil
	}
	est, err := e.estimateLocked(v.Pixels)
	if err != nil {
		return CutLevels{}, est, err
	}
	cuts, err := ComputeCuts(est, e.sigma)
	return cuts, est, err
}

// Autoscale estimates cuts from the image statistics and rescales to them.
// If the distribution is degenerate it falls back to the full data range
// and returns the invalid estimate with a nil error. On Unloaded it is a no-op.
func (e *Engine) Autoscale() (RobustEstimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.Load().State == StateUnloaded {
		return RobustEstimate{}, nil
	}
	return e.autoscaleLocked()
}

func (e *Engine) autoscaleLocked() (RobustEstimate, error) {
	pix := e.view.Load().Pixels
	est, err := e.estimateLocked(pix)
	if err != nil {
		return est, err
	}
	cuts, err := ComputeCuts(est, e.sigma)
	if err != nil {
		e.logVerbose("%v, using full range [%g, %g]", err, pix.Min, pix.Max)
		cuts = CutLevels{Low: pix.Min, High: pix.Max}
	}
	return est, e.rescaleLocked(cuts, est)
}

func (e *Engine) estimateLocked(pix *PixelBuffer) (RobustEstimate, error) {
	var sample []float64
	if e.maxSample == 0 {
		sample = finiteSample(pix.Data)
	} else {
		drawn, err := RandomSample(pix.Data, e.maxSample, e.rng)
		if err != nil {
			return RobustEstimate{}, err
		}
		sample = keepFinite(drawn)
	}
	est := RobustSigma(sample)
	e.logVerbose("robust estimate %v, sigma multipliers %v", est, e.sigma)
	return est, nil
}

// Rescale quantizes the image with a manual cut pair, clamped to the data
// range. Unusable pairs return a *CutRangeError and change nothing.
// On Unloaded it is a no-op.
func (e *Engine) Rescale(low, high float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view.Load()
	if v.State == StateUnloaded {
		return nil
	}
	return e.rescaleLocked(CutLevels{Low: low, High: high}, v.Estimate)
}

func (e *Engine) rescaleLocked(req CutLevels, est RobustEstimate) error {
	cur := e.view.Load()
	pix := cur.Pixels

	cuts, err := ClampCuts(req, pix.Min, pix.Max)
	if err != nil {
		return err
	}
	scaled, err := QuantizeWithLimit(pix.Data, cuts, e.maxScaled)
	if err != nil {
		return err
	}

	next := *cur
	next.State = StateCut
	next.Cuts = cuts
	next.Scaled = scaled
	next.Estimate = est
	e.view.Store(&next)
	e.logVerbose("cuts %v", cuts)
	return nil
}

// keepFinite drops non-finite values from s in place.
func keepFinite(s []float64) []float64 {
	out := s[:0]
	for _, v := range s {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
