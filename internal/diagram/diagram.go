// Package diagram lays out the top view of the first layer of a packing and
// encodes it as SVG.
package diagram

import (
	"errors"
	"fmt"
	"math"

	"github.com/eugenenazirov/carton-planner/internal/packing"
)

const (
	defaultSize    = 280
	defaultMargin  = 10
	defaultPadding = 1

	// MaxUnits is the largest first layer TopView will lay out.
	MaxUnits = 10_000
)

// ErrTooDense is returned when the first layer has more units than MaxUnits.
var ErrTooDense = errors.New("grid too dense to draw")

// Options control the canvas. Zero values fall back to a 280px square canvas
// with a 10px margin and 1px padding around every unit.
type Options struct {
	Size    float64
	Margin  float64
	Padding float64
}

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

// Label is a text annotation anchored at (X, Y).
type Label struct {
	X, Y   float64
	Text   string
	Anchor string
}

// Layout is everything a renderer needs to draw the top view.
type Layout struct {
	Width  float64
	Height float64
	Scale  float64
	Carton Rect
	Units  []Rect
	Labels []Label
}

// TopView scales the carton floor into the canvas, centres it and places one
// rectangle per unit of the first layer.
func TopView(carton packing.Dimensions, result packing.Result, opts Options) (Layout, error) {
	if result.Rows > 0 && result.Columns > 0 && result.Rows > MaxUnits/result.Columns {
		return Layout{}, fmt.Errorf("%w: %d×%d units exceeds %d", ErrTooDense, result.Columns, result.Rows, MaxUnits)
	}
	opts = withDefaults(opts)

	layout := Layout{Width: opts.Size, Height: opts.Size}
	if carton.Length <= 0 || carton.Width <= 0 {
		return layout, nil
	}

	usable := opts.Size - 2*opts.Margin
	scale := math.Min(usable/carton.Length, usable/carton.Width)
	boxL := carton.Length * scale
	boxW := carton.Width * scale
	startX := (opts.Size - boxL) / 2
	startY := (opts.Size - boxW) / 2

	layout.Scale = scale
	layout.Carton = Rect{X: startX, Y: startY, W: boxL, H: boxW}
	layout.Labels = []Label{
		{X: opts.Size / 2, Y: startY - 6, Text: formatMillimetres(carton.Length), Anchor: "middle"},
		{X: startX + boxL + 6, Y: opts.Size / 2, Text: formatMillimetres(carton.Width), Anchor: "start"},
	}

	unitL := result.Footprint.Length * scale
	unitW := result.Footprint.Width * scale
	if result.Rows <= 0 || result.Columns <= 0 || unitL <= 0 || unitW <= 0 {
		return layout, nil
	}

	pad := opts.Padding
	if 2*pad >= unitL || 2*pad >= unitW {
		pad = 0
	}

	layout.Units = make([]Rect, 0, result.Rows*result.Columns)
	for r := 0; r < result.Rows; r++ {
		for c := 0; c < result.Columns; c++ {
			layout.Units = append(layout.Units, Rect{
				X: startX + float64(c)*unitL + pad,
				Y: startY + float64(r)*unitW + pad,
				W: unitL - 2*pad,
				H: unitW - 2*pad,
			})
		}
	}

	return layout, nil
}

func withDefaults(opts Options) Options {
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	if opts.Margin <= 0 {
		opts.Margin = defaultMargin
	}
	if opts.Margin*2 >= opts.Size {
		opts.Margin = 0
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	} else if opts.Padding == 0 {
		opts.Padding = defaultPadding
	}
	return opts
}
