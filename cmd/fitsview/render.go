package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	fv "fitsview/pkg/fitsview"
)

var (
	renderOut        string
	renderCuts       string
	renderWidth      int
	renderNoFlip     bool
	renderNoAnnotate bool
)

var renderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Render an autoscaled (or manually cut) preview image",
	Long: `Loads a FITS file (or any image gocv can read), picks cut levels from
robust statistics unless --cuts is given, and writes a PNG or JPEG preview.

The output format follows the extension of --out.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <input>.png)")
	renderCmd.Flags().StringVar(&renderCuts, "cuts", "", `manual cut levels "low,high"`)
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 0, "output width in pixels (0 = native)")
	renderCmd.Flags().BoolVar(&renderNoFlip, "no-flip", false, "keep FITS row 0 at the top")
	renderCmd.Flags().BoolVar(&renderNoAnnotate, "no-annotate", false, "omit the cut level strip")
	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, args []string) error {
	input := args[0]
	start := time.Now()

	var manual *fv.CutLevels
	if renderCuts != "" {
		c, err := parseCuts(renderCuts)
		if err != nil {
			return err
		}
		manual = &c
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	if _, err := loadInto(eng, input, manual == nil); err != nil {
		return err
	}
	if manual != nil {
		if err := eng.Rescale(manual.Low, manual.High); err != nil {
			return fmt.Errorf("rescale: %w", err)
		}
	}

	view := eng.View()
	preview, err := fv.RenderPreview(view, &fv.PreviewOptions{
		Width:    renderWidth,
		FlipY:    !renderNoFlip,
		Annotate: !renderNoAnnotate,
	})
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
	}
	if err := fv.WritePreview(out, preview); err != nil {
		return err
	}

	fmt.Printf("%s -> %s  cuts %v  palette %s  (%s)\n",
		input, out, view.Cuts, view.Palette.Name, time.Since(start).Round(time.Millisecond))
	return nil
}

// parseCuts parses "low,high".
func parseCuts(s string) (fv.CutLevels, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fv.CutLevels{}, fmt.Errorf("cuts must be \"low,high\", got %q", s)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fv.CutLevels{}, fmt.Errorf("low cut: %w", err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fv.CutLevels{}, fmt.Errorf("high cut: %w", err)
	}
	return fv.CutLevels{Low: low, High: high}, nil
}
