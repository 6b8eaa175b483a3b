package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	fv "fitsview/pkg/fitsview"
)

var (
	version = "0.1.0"
	verbose bool

	lowSigma   float64
	highSigma  float64
	maxSample  int
	palette    string
	seed       uint64
	debayerPat string
)

var rootCmd = &cobra.Command{
	Use:   "fitsview",
	Short: "Autoscale FITS images into 8-bit indexed previews",
	Long: `fitsview picks display cut levels for astronomical images from robust
statistics (median and biweight sigma of a random pixel sample) and
quantizes the image into a 256-level palette.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.Float64Var(&lowSigma, "low-sigma", fv.DefaultLowSigma, "low cut = median - low-sigma * sigma")
	pf.Float64Var(&highSigma, "high-sigma", fv.DefaultHighSigma, "high cut = median + high-sigma * sigma")
	pf.IntVar(&maxSample, "max-sample", fv.DefaultMaxSampleLength, "statistics sample size (0 = all pixels)")
	pf.StringVarP(&palette, "palette", "p", fv.DefaultPalette, "palette variant")
	pf.Uint64Var(&seed, "seed", 0, "sampler seed (0 = random)")
	pf.StringVar(&debayerPat, "debayer", "", `debayer raw frames: a pattern such as RGGB, or "auto" to use BAYERPAT`)
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"fitsview %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[fitsview] "+format+"\n", args...)
	}
}

func newEngine() (*fv.Engine, error) {
	p := fv.NewParams()
	p.LowSigma = lowSigma
	p.HighSigma = highSigma
	p.MaxSampleLength = maxSample
	p.Palette = palette
	p.Seed = seed
	p.Logf = logVerbose
	logVerbose("params %v", p)
	return fv.NewEngine(p)
}
