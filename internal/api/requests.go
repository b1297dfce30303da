package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type dimensionsPayload struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

func (d dimensionsPayload) toDimensions() packing.Dimensions {
	return packing.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height}
}

type deductionPayload struct {
	Length     float64 `json:"length" validate:"gte=0"`
	Width      float64 `json:"width" validate:"gte=0"`
	Height     float64 `json:"height" validate:"gte=0"`
	SideLining float64 `json:"sideLining" validate:"gte=0"`
}

func (d *deductionPayload) orDefault(def catalog.Deduction) catalog.Deduction {
	if d == nil {
		return def
	}
	return catalog.Deduction{Length: d.Length, Width: d.Width, Height: d.Height, SideLining: d.SideLining}
}

// optimizeRequest names either an explicit interior or a catalog carton.
type optimizeRequest struct {
	CartonInterior   *dimensionsPayload `json:"cartonInterior" validate:"required_without=Carton,excluded_with=Carton"`
	Carton           string             `json:"carton" validate:"omitempty,max=100"`
	Deduction        *deductionPayload  `json:"deduction"`
	Product          dimensionsPayload  `json:"product"`
	DividerThickness *float64           `json:"dividerThickness" validate:"omitempty,gte=0"`
	Orientation      string             `json:"orientation" validate:"omitempty,oneof=flat side upright"`
	UnitWeight       float64            `json:"unitWeight" validate:"gte=0"`
	UnitCost         float64            `json:"unitCost" validate:"gte=0"`
}

type recommendRequest struct {
	Product          dimensionsPayload `json:"product"`
	Deduction        *deductionPayload `json:"deduction"`
	DividerThickness *float64          `json:"dividerThickness" validate:"omitempty,gte=0"`
	UnitWeight       float64           `json:"unitWeight" validate:"gte=0"`
	UnitCost         float64           `json:"unitCost" validate:"gte=0"`
	MaxWeight        float64           `json:"maxWeight" validate:"gte=0"`
	Limit            int               `json:"limit" validate:"gte=0,lte=200"`
}

type shipmentRequest struct {
	recommendRequest
	OrderQuantity int `json:"orderQuantity" validate:"gt=0,lte=500000"`
}

type cartonPayload struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Length       float64 `json:"length" validate:"gt=0"`
	Width        float64 `json:"width" validate:"gt=0"`
	Height       float64 `json:"height" validate:"gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	DividerPrice float64 `json:"dividerPrice" validate:"gte=0"`
	TareWeight   float64 `json:"tareWeight" validate:"gte=0"`
}

type cartonsRequest struct {
	Cartons []cartonPayload `json:"cartons" validate:"required,min=1,dive"`
}

func (r cartonsRequest) toCartons() []catalog.Carton {
	out := make([]catalog.Carton, 0, len(r.Cartons))
	for _, c := range r.Cartons {
		out = append(out, catalog.Carton{
			Name:         c.Name,
			Length:       c.Length,
			Width:        c.Width,
			Height:       c.Height,
			Price:        c.Price,
			DividerPrice: c.DividerPrice,
			TareWeight:   c.TareWeight,
		})
	}
	return out
}

func dividerOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// dimensionFields are the struct fields whose failures are reported as
// "Invalid dimension", whichever payload they arrive in.
var dimensionFields = map[string]struct{}{
	"Length":           {},
	"Width":            {},
	"Height":           {},
	"SideLining":       {},
	"DividerThickness": {},
}

// validationLabel picks the error label for a failed validation.
func validationLabel(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, ok := dimensionFields[fe.StructField()]; ok {
				return "Invalid dimension"
			}
		}
	}
	return "Invalid request"
}

// validationDetails flattens validator errors into one readable line.
func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
