package main

import (
	"fmt"

	"github.com/spf13/cobra"

	fv "fitsview/pkg/fitsview"
)

var statsCmd = &cobra.Command{
	Use:   "stats <input>",
	Short: "Print data range, robust statistics and autoscale cuts",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var palettesCmd = &cobra.Command{
	Use:   "palettes",
	Short: "List palette variants",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		for _, name := range fv.PaletteNames() {
			marker := " "
			if name == fv.DefaultPalette {
				marker = "*"
			}
			fmt.Printf(" %s %s\n", marker, name)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(palettesCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	meta, err := loadInto(eng, args[0], true)
	if err != nil {
		return err
	}
	printStats(eng, meta)
	return nil
}

func printStats(eng *fv.Engine, meta *fv.FitsMetadata) {
	v := eng.View()
	k := eng.CutSigma()

	fmt.Println()
	fmt.Printf("=== %s ===\n", v.Filename)
	if meta != nil {
		if obj := meta.ObjectName(); obj != "" {
			fmt.Printf("  Object:        %s\n", obj)
		}
		if exp, ok := meta.ExposureTime(); ok {
			fmt.Printf("  Exposure:      %.3f s\n", exp)
		}
		if f := meta.Filter(); f != "" {
			fmt.Printf("  Filter:        %s\n", f)
		}
	}
	fmt.Printf("  Image size:    %d x %d\n", v.Pixels.Width, v.Pixels.Height)
	fmt.Printf("  Data range:    [%g, %g]\n", v.Pixels.Min, v.Pixels.Max)
	fmt.Printf("  Sample size:   %d\n", v.Estimate.SampleSize)
	fmt.Printf("  Median:        %g\n", v.Estimate.Median)
	if v.Estimate.Valid {
		fmt.Printf("  Robust sigma:  %g\n", v.Estimate.Sigma)
	} else {
		fmt.Println("  Robust sigma:  n/a [DEGENERATE - FULL RANGE]")
	}
	fmt.Printf("  Multipliers:   -%g / +%g sigma\n", k.Low, k.High)
	fmt.Printf("  Cuts:          %v\n", v.Cuts)
	fmt.Printf("  Palette:       %s\n", v.Palette.Name)
	fmt.Printf("  Scaled hash:   %s\n", v.Hash())
	fmt.Println("==============================")
}
