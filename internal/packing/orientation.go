package packing

import (
	"fmt"
	"strings"
)

// Orientation names which raw product axis stands vertical.
type Orientation string

const (
	// Flat lays the product on its L×W face; H is vertical.
	Flat Orientation = "flat"
	// Side lays the product on its L×H face; W is vertical.
	Side Orientation = "side"
	// Upright stands the product on its W×H face; L is vertical.
	Upright Orientation = "upright"
)

// Orientations lists every orientation in evaluation order. Ties between
// orientations are resolved in favour of the earlier entry.
var Orientations = []Orientation{Flat, Side, Upright}

type axis int

const (
	axisLength axis = iota
	axisWidth
	axisHeight
)

// placements maps each orientation to the raw axes used as footprint length,
// footprint width and vertical extent.
var placements = map[Orientation][3]axis{
	Flat:    {axisLength, axisWidth, axisHeight},
	Side:    {axisLength, axisHeight, axisWidth},
	Upright: {axisWidth, axisHeight, axisLength},
}

// Place returns the footprint length, footprint width and vertical extent of
// product d under orientation o.
func (o Orientation) Place(d Dimensions) (pL, pW, pH float64) {
	perm, ok := placements[o]
	if !ok {
		perm = placements[Flat]
	}
	raw := [3]float64{d.Length, d.Width, d.Height}
	return raw[perm[0]], raw[perm[1]], raw[perm[2]]
}

// Valid reports whether o is one of the known orientations.
func (o Orientation) Valid() bool {
	_, ok := placements[o]
	return ok
}

// ParseOrientation converts a label such as "flat" into an Orientation.
func ParseOrientation(label string) (Orientation, error) {
	o := Orientation(strings.ToLower(strings.TrimSpace(label)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrientation, label)
	}
	return o, nil
}
