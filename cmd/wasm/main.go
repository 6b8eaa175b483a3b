//go:build js && wasm

package main

import (
	"bytes"
	"syscall/js"

	fv "fitsview/pkg/fitsview"
)

var engine *fv.Engine

func main() {
	js.Global().Set("autoscaleFITS", js.FuncOf(autoscaleFITS))
	js.Global().Set("rescale", js.FuncOf(rescale))
	js.Global().Set("setPalette", js.FuncOf(setPalette))
	js.Global().Set("renderPreview", js.FuncOf(renderPreview))
	select {} // block forever
}

// autoscaleFITS(fileBytes, options) loads a FITS file and autoscales it.
// options: {lowSigma, highSigma, maxSample, palette, debayer}.
func autoscaleFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: autoscaleFITS(fileBytes, options)")
	}

	jsBytes := args[0]
	length := jsBytes.Get("length").Int()
	fileBytes := make([]byte, length)
	js.CopyBytesToGo(fileBytes, jsBytes)

	p := fv.NewParams()
	debayer := ""
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		opts := args[1]
		if v := opts.Get("lowSigma"); v.Type() == js.TypeNumber {
			p.LowSigma = v.Float()
		}
		if v := opts.Get("highSigma"); v.Type() == js.TypeNumber {
			p.HighSigma = v.Float()
		}
		if v := opts.Get("maxSample"); v.Type() == js.TypeNumber {
			p.MaxSampleLength = v.Int()
		}
		if v := opts.Get("palette"); v.Type() == js.TypeString {
			p.Palette = v.String()
		}
		if v := opts.Get("debayer"); v.Type() == js.TypeString {
			debayer = v.String()
		}
	}

	img, err := fv.ReadFitsFromBytes(fileBytes)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	buf := img.Buffer
	if debayer == "auto" {
		debayer = img.Metadata.BayerPattern()
	}
	if debayer != "" {
		if buf, err = fv.Debayer(buf, debayer); err != nil {
			return errorResult("Debayer error: " + err.Error())
		}
	}

	eng, err := fv.NewEngine(p)
	if err != nil {
		return errorResult("Config error: " + err.Error())
	}
	if err := eng.Load(buf, true); err != nil {
		return errorResult("Autoscale error: " + err.Error())
	}
	engine = eng

	return viewResult(eng.View(), img.Metadata)
}

// rescale(low, high) applies manual cuts to the last loaded image.
func rescale(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return errorResult("no image loaded")
	}
	if len(args) < 2 {
		return errorResult("usage: rescale(low, high)")
	}
	if err := engine.Rescale(args[0].Float(), args[1].Float()); err != nil {
		return errorResult(err.Error())
	}
	return viewResult(engine.View(), nil)
}

func setPalette(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return errorResult("no image loaded")
	}
	if len(args) < 1 {
		return errorResult("usage: setPalette(name)")
	}
	if err := engine.SetPalette(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return viewResult(engine.View(), nil)
}

// renderPreview(width) returns the last view as PNG bytes.
func renderPreview(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return js.Null()
	}
	opts := fv.NewPreviewOptions()
	if len(args) >= 1 && args[0].Type() == js.TypeNumber {
		opts.Width = args[0].Int()
	}
	img, err := fv.RenderPreview(engine.View(), opts)
	if err != nil {
		return js.Null()
	}
	var buf bytes.Buffer
	if err := fv.EncodePreview(&buf, img, "png"); err != nil {
		return js.Null()
	}

	uint8Array := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(uint8Array, buf.Bytes())
	return uint8Array
}

func viewResult(v *fv.View, meta *fv.FitsMetadata) interface{} {
	result := map[string]interface{}{
		"width":    v.Pixels.Width,
		"height":   v.Pixels.Height,
		"min":      v.Pixels.Min,
		"max":      v.Pixels.Max,
		"median":   v.Estimate.Median,
		"sigma":    v.Estimate.Sigma,
		"valid":    v.Estimate.Valid,
		"lowCut":   v.Cuts.Low,
		"highCut":  v.Cuts.High,
		"palette":  v.Palette.Name,
		"hash":     v.Hash(),
		"state":    v.State.String(),
		"palettes": paletteList(),
	}
	if meta != nil {
		result["object"] = meta.ObjectName()
	}
	return js.ValueOf(result)
}

func paletteList() []interface{} {
	names := fv.PaletteNames()
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
