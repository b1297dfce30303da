package shipment

import (
	"math"
	"sort"
	"strings"

	"github.com/eugenenazirov/carton-planner/internal/ranking"
)

const (
	maxOrder     = 500_000
	costEpsilon  = 1e-9
	unreachable  = -1
	costDecimals = 4
)

type dpPlanner struct{}

// New creates a Planner based on dynamic programming over the order quantity.
func New() Planner {
	return &dpPlanner{}
}

// FromOptions turns ranked carton options into shipment candidates.
func FromOptions(options []ranking.Option) []Candidate {
	out := make([]Candidate, 0, len(options))
	for _, o := range options {
		out = append(out, Candidate{
			Carton:   o.Carton.Name,
			Capacity: o.Packing.TotalCount,
			Cost:     o.Quote.MaterialCost,
		})
	}
	return out
}

// state is the cheapest way found to hold at least some quantity. Ties on
// cost go to fewer cartons, then to less total capacity.
type state struct {
	cost     float64
	cartons  int
	capacity int
}

func (s state) better(o state) bool {
	if math.Abs(s.cost-o.cost) > costEpsilon {
		return s.cost < o.cost
	}
	if s.cartons != o.cartons {
		return s.cartons < o.cartons
	}
	return s.capacity < o.capacity
}

// Plan returns the cheapest mix of candidates whose capacities add up to at
// least order units.
func (p *dpPlanner) Plan(order int, candidates []Candidate) (Plan, error) {
	if order < 1 || order > maxOrder {
		return Plan{}, ErrInvalidOrder
	}
	normalized, err := normalizeCandidates(candidates)
	if err != nil {
		return Plan{}, err
	}

	best := make([]state, order+1)
	choice := make([]int, order+1)
	for q := 1; q <= order; q++ {
		choice[q] = unreachable
		for i, c := range normalized {
			prev := q - c.Capacity
			if prev < 0 {
				prev = 0
			}
			next := state{
				cost:     best[prev].cost + c.Cost,
				cartons:  best[prev].cartons + 1,
				capacity: best[prev].capacity + c.Capacity,
			}
			if choice[q] == unreachable || next.better(best[q]) {
				best[q] = next
				choice[q] = i
			}
		}
	}

	counts := make([]int, len(normalized))
	for remaining := order; remaining > 0; {
		i := choice[remaining]
		counts[i]++
		remaining -= normalized[i].Capacity
	}

	plan := Plan{Order: order}
	for i, c := range normalized {
		if counts[i] == 0 {
			continue
		}
		plan.Lines = append(plan.Lines, Line{
			Carton:         c.Carton,
			Count:          counts[i],
			UnitsPerCarton: c.Capacity,
			Cost:           round(float64(counts[i])*c.Cost, costDecimals),
		})
		plan.TotalCartons += counts[i]
		plan.Capacity += counts[i] * c.Capacity
	}
	plan.Spare = plan.Capacity - order
	plan.MaterialCost = round(best[order].cost, costDecimals)

	return plan, nil
}

// normalizeCandidates validates candidates, drops any that another candidate
// beats on both capacity and cost, and orders the rest by capacity descending
// then name.
func normalizeCandidates(candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Carton))
		if key == "" || c.Capacity <= 0 || c.Cost < 0 || math.IsNaN(c.Cost) || math.IsInf(c.Cost, 0) {
			return nil, ErrInvalidCandidate
		}
		if _, dup := seen[key]; dup {
			return nil, ErrInvalidCandidate
		}
		seen[key] = struct{}{}
	}

	kept := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		dominated := false
		for j, o := range candidates {
			if i != j && o.Capacity >= c.Capacity && o.Cost < c.Cost-costEpsilon {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Capacity != kept[j].Capacity {
			return kept[i].Capacity > kept[j].Capacity
		}
		return kept[i].Carton < kept[j].Carton
	})
	return kept, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
