package shipment

// Candidate is one carton that can be used in a shipment, with the number of
// units a full carton holds and what one carton costs to pack.
type Candidate struct {
	Carton   string
	Capacity int
	Cost     float64
}

// Line is one carton size in a plan.
type Line struct {
	Carton         string  `json:"carton"`
	Count          int     `json:"count"`
	UnitsPerCarton int     `json:"unitsPerCarton"`
	Cost           float64 `json:"cost"`
}

// Plan splits an order over cartons. Capacity is the sum of full-carton
// capacities; Spare is the unused room left by the last cartons.
type Plan struct {
	Order        int     `json:"order"`
	Lines        []Line  `json:"lines"`
	TotalCartons int     `json:"totalCartons"`
	Capacity     int     `json:"capacity"`
	Spare        int     `json:"spare"`
	MaterialCost float64 `json:"materialCost"`
}

// Planner describes the behaviour required from a shipment planner.
type Planner interface {
	Plan(order int, candidates []Candidate) (Plan, error)
}
