package packing

// Dimensions is an ordered length/width/height triple in millimetres.
type Dimensions struct {
	Length float64 `json:"length" yaml:"length"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Volume returns Length*Width*Height.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// Footprint is the in-plane size of a unit as drawn on the carton floor.
type Footprint struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// LayerLayout is the best single-layer grid for one face-up orientation.
type LayerLayout struct {
	Columns   int
	Rows      int
	Count     int
	Footprint Footprint
	Rotated   bool
}

// Request carries the inputs of one optimization. Carton holds interior
// dimensions, already net of wall, flap and side-lining deductions.
// A non-empty Orientation restricts the search to that single placement.
type Request struct {
	Carton           Dimensions
	Product          Dimensions
	DividerThickness float64
	Orientation      Orientation
}

// Result describes the winning packing for a Request.
type Result struct {
	Orientation Orientation `json:"orientation"`
	Columns     int         `json:"columns"`
	Rows        int         `json:"rows"`
	PerLayer    int         `json:"perLayerCount"`
	Layers      int         `json:"layers"`
	Dividers    int         `json:"dividers"`
	TotalCount  int         `json:"totalCount"`
	Footprint   Footprint   `json:"displayFootprint"`
	UnitHeight  float64     `json:"unitHeight"`
	StackHeight float64     `json:"stackHeightUsed"`
}

// Optimizer describes the behaviour required from a carton packing optimizer.
// The boolean result is false when no orientation fits; that outcome is not an error.
type Optimizer interface {
	Optimize(req Request) (Result, bool, error)
}
