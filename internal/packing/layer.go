package packing

import "math"

// epsilon absorbs binary rounding on exact boundaries such as 0.3/0.1.
const epsilon = 1e-9

// EvaluateLayer returns the best grid of footprint p×q inside a carton floor a×b,
// comparing the unrotated placement (p along a) with the 90° rotated one.
// A rotated grid wins only with a strictly larger count. Counts of zero are
// returned as-is; callers treat them as infeasible.
func EvaluateLayer(a, b, p, q float64) LayerLayout {
	straight := LayerLayout{
		Columns:   fit(a, p),
		Rows:      fit(b, q),
		Footprint: Footprint{Length: p, Width: q},
	}
	straight.Count = straight.Columns * straight.Rows

	rotated := LayerLayout{
		Columns:   fit(a, q),
		Rows:      fit(b, p),
		Footprint: Footprint{Length: q, Width: p},
		Rotated:   true,
	}
	rotated.Count = rotated.Columns * rotated.Rows

	if rotated.Count > straight.Count {
		return rotated
	}
	return straight
}

// fit returns how many whole lengths of size fit into span, saturating at
// MaxUnits so the conversion to int never wraps.
func fit(span, size float64) int {
	if size <= 0 || span <= 0 {
		return 0
	}
	n := math.Floor(span/size + epsilon)
	switch {
	case math.IsNaN(n) || n < 0:
		return 0
	case n > MaxUnits:
		return MaxUnits
	}
	return int(n)
}
