package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	carton := catalog.Carton{Name: "large", Length: 500, Width: 400, Height: 300, Price: 16.5, DividerPrice: 1.2, TareWeight: 0.7}
	interior := packing.Dimensions{Length: 480, Width: 380, Height: 280}
	product := Product{
		Dimensions: packing.Dimensions{Length: 120, Width: 80, Height: 50},
		UnitWeight: 0.25,
		UnitCost:   3,
	}
	result := packing.Result{TotalCount: 90, Layers: 5, Dividers: 4, PerLayer: 18}

	got, err := Build(result, carton, interior, product)
	require.NoError(t, err)

	assert.Equal(t, "large", got.Carton)
	assert.Equal(t, 4, got.Dividers)
	assert.InDelta(t, 21.3, got.MaterialCost, 1e-9)
	assert.InDelta(t, 0.2367, got.PackagingCostPerUnit, 1e-9)
	assert.InDelta(t, 270, got.GoodsValue, 1e-9)
	assert.InDelta(t, 3.2367, got.LandedCostPerUnit, 1e-9)
	assert.InDelta(t, 23.2, got.ShippingWeight, 1e-9)
	// 90 * 480000 / 51072000
	assert.InDelta(t, 0.8459, got.Utilization, 1e-9)
	assert.InDelta(t, 84.6, got.UtilizationPercent, 1e-9)
}

func TestBuildWithoutDividers(t *testing.T) {
	t.Parallel()

	carton := catalog.Carton{Name: "small", Price: 10, DividerPrice: 5}
	result := packing.Result{TotalCount: 4, Layers: 2, Dividers: 0}

	got, err := Build(result, carton, packing.Dimensions{Length: 10, Width: 10, Height: 10}, Product{})
	require.NoError(t, err)
	assert.InDelta(t, 10, got.MaterialCost, 1e-9)
	assert.InDelta(t, 2.5, got.PackagingCostPerUnit, 1e-9)
	assert.Zero(t, got.ShippingWeight)
}

func TestBuildRejectsEmptyPacking(t *testing.T) {
	t.Parallel()

	_, err := Build(packing.Result{}, catalog.Carton{}, packing.Dimensions{}, Product{})
	assert.ErrorIs(t, err, ErrEmptyPacking)
}
