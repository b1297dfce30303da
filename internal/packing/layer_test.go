package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateLayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		a, b, p, q float64
		want       LayerLayout
	}{
		{
			name: "UnrotatedWins",
			a:    500, b: 400, p: 120, q: 80,
			want: LayerLayout{Columns: 4, Rows: 5, Count: 20, Footprint: Footprint{Length: 120, Width: 80}},
		},
		{
			name: "RotatedWins",
			a:    480, b: 380, p: 120, q: 80,
			want: LayerLayout{Columns: 6, Rows: 3, Count: 18, Footprint: Footprint{Length: 80, Width: 120}, Rotated: true},
		},
		{
			name: "TieKeepsUnrotated",
			a:    100, b: 100, p: 50, q: 25,
			want: LayerLayout{Columns: 2, Rows: 4, Count: 8, Footprint: Footprint{Length: 50, Width: 25}},
		},
		{
			name: "ExactEdgeCountsOne",
			a:    120, b: 80, p: 120, q: 80,
			want: LayerLayout{Columns: 1, Rows: 1, Count: 1, Footprint: Footprint{Length: 120, Width: 80}},
		},
		{
			name: "OnlyRotationFits",
			a:    100, b: 300, p: 200, q: 90,
			want: LayerLayout{Columns: 1, Rows: 1, Count: 1, Footprint: Footprint{Length: 90, Width: 200}, Rotated: true},
		},
		{
			name: "NothingFitsReturnsZero",
			a:    100, b: 100, p: 150, q: 150,
			want: LayerLayout{Columns: 0, Rows: 0, Count: 0, Footprint: Footprint{Length: 150, Width: 150}},
		},
		{
			name: "HugeSpanSaturates",
			a:    1e30, b: 0.5, p: 1, q: 1,
			want: LayerLayout{Columns: MaxUnits, Rows: 0, Count: 0, Footprint: Footprint{Length: 1, Width: 1}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateLayer(tc.a, tc.b, tc.p, tc.q))
		})
	}
}

func TestFitHandlesDegenerateInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, fit(100, 0))
	assert.Equal(t, 0, fit(0, 10))
	assert.Equal(t, 0, fit(-5, 10))
	assert.Equal(t, 3, fit(0.3, 0.1))
	assert.Equal(t, MaxUnits, fit(1e300, 1e-300))
}
