// Package quote turns a packing result into the figures shown to operators:
// material cost, cost per unit, shipping weight and space utilization.
package quote

import (
	"errors"
	"math"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
)

// ErrEmptyPacking is returned when a quote is requested for a result that packs nothing.
var ErrEmptyPacking = errors.New("packing result holds no units")

// Product describes one unit of the packed item. UnitWeight is in kilograms.
type Product struct {
	Dimensions packing.Dimensions
	UnitWeight float64
	UnitCost   float64
}

// Quote holds the derived figures for one carton.
type Quote struct {
	Carton               string  `json:"carton,omitempty"`
	Dividers             int     `json:"dividers"`
	MaterialCost         float64 `json:"materialCost"`
	PackagingCostPerUnit float64 `json:"packagingCostPerUnit"`
	GoodsValue           float64 `json:"goodsValue"`
	LandedCostPerUnit    float64 `json:"landedCostPerUnit"`
	ShippingWeight       float64 `json:"shippingWeight"`
	Utilization          float64 `json:"utilization"`
	UtilizationPercent   float64 `json:"utilizationPercent"`
}

// Build computes the quote for result packed in carton with the given interior.
func Build(result packing.Result, carton catalog.Carton, interior packing.Dimensions, product Product) (Quote, error) {
	if result.TotalCount <= 0 {
		return Quote{}, ErrEmptyPacking
	}

	units := float64(result.TotalCount)
	material := carton.Price + float64(result.Dividers)*carton.DividerPrice
	goods := units * product.UnitCost

	q := Quote{
		Carton:               carton.Name,
		Dividers:             result.Dividers,
		MaterialCost:         round(material, 4),
		PackagingCostPerUnit: round(material/units, 4),
		GoodsValue:           round(goods, 4),
		LandedCostPerUnit:    round((material+goods)/units, 4),
		ShippingWeight:       round(units*product.UnitWeight+carton.TareWeight, 4),
	}

	if volume := interior.Volume(); volume > 0 {
		ratio := product.Dimensions.Volume() * units / volume
		q.Utilization = round(ratio, 4)
		q.UtilizationPercent = round(ratio*100, 1)
	}

	return q, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
