// Package ranking evaluates every carton in a catalog for one product and
// orders the cartons that can hold it by packaging cost per unit.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
	"github.com/eugenenazirov/carton-planner/internal/quote"
)

const defaultConcurrency = 8

// Rejection reasons.
const (
	ReasonInvalidInterior = "invalid_interior"
	ReasonCannotPack      = "cannot_pack"
	ReasonOverweight      = "overweight"
)

// Options describe the product and the constraints applied to every carton.
type Options struct {
	Product          quote.Product
	DividerThickness float64
	Deduction        catalog.Deduction
	// MaxWeight caps the shipping weight in kilograms; zero disables the cap.
	MaxWeight float64
	// Limit truncates the ranked list; zero keeps every option.
	Limit int
}

// Option is one carton that can hold the product.
type Option struct {
	Carton   catalog.Carton     `json:"carton"`
	Interior packing.Dimensions `json:"interior"`
	Packing  packing.Result     `json:"packing"`
	Quote    quote.Quote        `json:"quote"`
}

// Rejected names a carton that was excluded and why.
type Rejected struct {
	Carton string `json:"carton"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Recommendation is the outcome of ranking a catalog.
type Recommendation struct {
	Options  []Option   `json:"options"`
	Rejected []Rejected `json:"rejected"`
}

// Best returns the cheapest option, if any.
func (r Recommendation) Best() (Option, bool) {
	if len(r.Options) == 0 {
		return Option{}, false
	}
	return r.Options[0], true
}

// Ranker evaluates catalogs with a shared optimizer.
type Ranker struct {
	optimizer   packing.Optimizer
	concurrency int
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithConcurrency bounds the number of cartons evaluated at once.
func WithConcurrency(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Ranker backed by optimizer.
func New(optimizer packing.Optimizer, opts ...RankerOption) *Ranker {
	r := &Ranker{
		optimizer:   optimizer,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type evaluation struct {
	option   Option
	rejected *Rejected
}

// Recommend evaluates every carton independently and returns the feasible
// ones ranked by packaging cost per unit, then total count, then name.
// Product dimension errors abort the whole ranking; carton problems only
// reject that carton.
func (r *Ranker) Recommend(ctx context.Context, cartons []catalog.Carton, opts Options) (Recommendation, error) {
	if err := opts.Deduction.Validate(); err != nil {
		return Recommendation{}, err
	}

	results := make([]evaluation, len(cartons))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, carton := range cartons {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			eval, err := r.evaluate(carton, opts)
			if err != nil {
				return fmt.Errorf("carton %q: %w", carton.Name, err)
			}
			results[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		Options:  make([]Option, 0, len(cartons)),
		Rejected: make([]Rejected, 0),
	}
	for _, eval := range results {
		if eval.rejected != nil {
			rec.Rejected = append(rec.Rejected, *eval.rejected)
			continue
		}
		rec.Options = append(rec.Options, eval.option)
	}

	sort.SliceStable(rec.Options, func(i, j int) bool {
		a, b := rec.Options[i], rec.Options[j]
		if a.Quote.PackagingCostPerUnit != b.Quote.PackagingCostPerUnit {
			return a.Quote.PackagingCostPerUnit < b.Quote.PackagingCostPerUnit
		}
		if a.Packing.TotalCount != b.Packing.TotalCount {
			return a.Packing.TotalCount > b.Packing.TotalCount
		}
		return a.Carton.Name < b.Carton.Name
	})
	sort.SliceStable(rec.Rejected, func(i, j int) bool {
		return rec.Rejected[i].Carton < rec.Rejected[j].Carton
	})

	if opts.Limit > 0 && len(rec.Options) > opts.Limit {
		rec.Options = rec.Options[:opts.Limit]
	}

	return rec, nil
}

func (r *Ranker) evaluate(carton catalog.Carton, opts Options) (evaluation, error) {
	interior := carton.Interior(opts.Deduction)
	if interior.Length <= 0 || interior.Width <= 0 || interior.Height <= 0 {
		return reject(carton, ReasonInvalidInterior, "interior is not positive after deductions"), nil
	}

	result, ok, err := r.optimizer.Optimize(packing.Request{
		Carton:           interior,
		Product:          opts.Product.Dimensions,
		DividerThickness: opts.DividerThickness,
	})
	if err != nil {
		return evaluation{}, err
	}
	if !ok {
		return reject(carton, ReasonCannotPack, ""), nil
	}

	q, err := quote.Build(result, carton, interior, opts.Product)
	if err != nil {
		if errors.Is(err, quote.ErrEmptyPacking) {
			return reject(carton, ReasonCannotPack, ""), nil
		}
		return evaluation{}, err
	}
	if opts.MaxWeight > 0 && q.ShippingWeight > opts.MaxWeight {
		return reject(carton, ReasonOverweight, fmt.Sprintf("%.2f kg exceeds %.2f kg", q.ShippingWeight, opts.MaxWeight)), nil
	}

	return evaluation{option: Option{
		Carton:   carton,
		Interior: interior,
		Packing:  result,
		Quote:    q,
	}}, nil
}

func reject(carton catalog.Carton, reason, detail string) evaluation {
	return evaluation{rejected: &Rejected{Carton: carton.Name, Reason: reason, Detail: detail}}
}
