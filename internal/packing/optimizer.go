package packing

import (
	"fmt"
	"math"
)

// MaxUnits bounds the number of units a single carton may be asked to hold.
// Requests whose volume ratio exceeds it are rejected before any grid is
// counted, which keeps every count and product of counts well inside int.
const MaxUnits = 1_000_000_000

type gridOptimizer struct{}

// New creates an Optimizer that tries every face-up orientation and keeps the
// grid with the highest unit count.
func New() Optimizer {
	return &gridOptimizer{}
}

func (o *gridOptimizer) Optimize(req Request) (Result, bool, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, false, err
	}

	candidates := Orientations
	if req.Orientation != "" {
		candidates = []Orientation{req.Orientation}
	}

	var (
		best  Result
		found bool
	)
	for _, orientation := range candidates {
		candidate, ok := evaluateOrientation(req, orientation)
		if !ok {
			continue
		}
		if !found || candidate.TotalCount > best.TotalCount {
			best = candidate
			found = true
		}
	}

	return best, found, nil
}

func evaluateOrientation(req Request, orientation Orientation) (Result, bool) {
	carton := req.Carton
	pL, pW, pH := orientation.Place(req.Product)
	if pL > carton.Length || pW > carton.Width || pH > carton.Height {
		return Result{}, false
	}

	layout := EvaluateLayer(carton.Length, carton.Width, pL, pW)
	if layout.Count == 0 {
		return Result{}, false
	}

	layers := stackLayers(carton.Height, pH, req.DividerThickness)
	if layers < 1 {
		return Result{}, false
	}

	dividers := 0
	if req.DividerThickness > 0 {
		dividers = layers - 1
	}

	return Result{
		Orientation: orientation,
		Columns:     layout.Columns,
		Rows:        layout.Rows,
		PerLayer:    layout.Count,
		Layers:      layers,
		Dividers:    dividers,
		TotalCount:  layout.Count * layers,
		Footprint:   layout.Footprint,
		UnitHeight:  pH,
		StackHeight: stackHeight(layers, pH, req.DividerThickness),
	}, true
}

// stackLayers counts the layers of height unit that fit in height when every
// boundary between two layers takes a divider of the given thickness.
func stackLayers(height, unit, divider float64) int {
	var layers int
	if divider > 0 {
		layers = fit(height+divider, unit+divider)
	} else {
		layers = fit(height, unit)
	}
	if layers < 1 {
		layers = 1
	}
	if stackHeight(layers, unit, divider) > height+epsilon {
		layers--
	}
	return layers
}

func stackHeight(layers int, unit, divider float64) float64 {
	if layers <= 0 {
		return 0
	}
	return float64(layers)*unit + float64(layers-1)*divider
}

func validateRequest(req Request) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"carton length", req.Carton.Length},
		{"carton width", req.Carton.Width},
		{"carton height", req.Carton.Height},
		{"product length", req.Product.Length},
		{"product width", req.Product.Width},
		{"product height", req.Product.Height},
	}
	for _, c := range checks {
		if !positiveFinite(c.value) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidDimension, c.name, c.value)
		}
	}
	if math.IsNaN(req.DividerThickness) || math.IsInf(req.DividerThickness, 0) || req.DividerThickness < 0 {
		return fmt.Errorf("%w: divider thickness must be zero or positive, got %g", ErrInvalidDimension, req.DividerThickness)
	}
	ratio := (req.Carton.Length / req.Product.Length) *
		(req.Carton.Width / req.Product.Width) *
		(req.Carton.Height / req.Product.Height)
	if !(ratio <= MaxUnits) {
		return fmt.Errorf("%w: carton would hold more than %d units", ErrInvalidDimension, MaxUnits)
	}
	if req.Orientation != "" && !req.Orientation.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOrientation, req.Orientation)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
