package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/diagram"
	"github.com/eugenenazirov/carton-planner/internal/metrics"
	"github.com/eugenenazirov/carton-planner/internal/packing"
	"github.com/eugenenazirov/carton-planner/internal/quote"
	"github.com/eugenenazirov/carton-planner/internal/ranking"
	"github.com/eugenenazirov/carton-planner/internal/shipment"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxDiagramSize = 2000

// Handler wires the optimizer, ranker and carton catalog into HTTP handlers.
type Handler struct {
	optimizer packing.Optimizer
	ranker    *ranking.Ranker
	planner   shipment.Planner
	catalog   catalog.Storage

	deduction        catalog.Deduction
	dividerThickness float64

	clock func() time.Time

	mu               sync.RWMutex
	cartonsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithDefaults sets the deduction and divider thickness used when a request omits them.
func WithDefaults(deduction catalog.Deduction, dividerThickness float64) HandlerOption {
	return func(h *Handler) {
		h.deduction = deduction
		h.dividerThickness = dividerThickness
	}
}

// WithRanker overrides the ranker built from the optimizer.
func WithRanker(r *ranking.Ranker) HandlerOption {
	return func(h *Handler) {
		h.ranker = r
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(opt packing.Optimizer, store catalog.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		optimizer: opt,
		planner:   shipment.New(),
		catalog:   store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, o := range opts {
		o(h)
	}
	if h.ranker == nil {
		h.ranker = ranking.New(opt)
	}
	h.cartonsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCartons(w http.ResponseWriter, r *http.Request) {
	_ = r
	cartons, err := h.catalog.List()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := cartonsResponse{
		Cartons:   cartons,
		UpdatedAt: h.currentCartonsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutCartons(w http.ResponseWriter, r *http.Request) {
	var req cartonsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.catalog.Replace(req.toCartons()); err != nil {
		if errors.Is(err, catalog.ErrInvalidCatalog) {
			writeError(w, http.StatusBadRequest, "Invalid catalog", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markCartonsUpdated()

	cartons, err := h.catalog.List()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := cartonsResponse{
		Cartons:   cartons,
		UpdatedAt: h.currentCartonsUpdatedAt(),
		Message:   "Carton catalog updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan, ok := h.plan(w, req)
	if !ok {
		return
	}

	resp := optimizeResponse{
		Carton:            plan.carton.Name,
		Interior:          plan.interior,
		Packing:           plan.result,
		Quote:             plan.quote,
		CalculationTimeUs: plan.elapsed.Microseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	size := 0.0
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxDiagramSize {
			writeError(w, http.StatusBadRequest, "Invalid request", "size must be an integer between 1 and 2000")
			return
		}
		size = float64(v)
	}

	var req optimizeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan, ok := h.plan(w, req)
	if !ok {
		return
	}

	layout, err := diagram.TopView(plan.interior, plan.result, diagram.Options{Size: size})
	if err != nil {
		if errors.Is(err, diagram.ErrTooDense) {
			writeError(w, http.StatusUnprocessableEntity, "Grid too dense to draw", err.Error(),
				"Use /api/optimize for the counts, or draw a larger product")
			return
		}
		writeInternalError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := diagram.WriteSVG(&buf, layout); err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	rec, ok := h.recommend(w, r, req)
	if !ok {
		return
	}

	resp := recommendResponse{
		Options:           rec.Options,
		Rejected:          rec.Rejected,
		CalculationTimeUs: time.Since(start).Microseconds(),
	}
	if best, ok := rec.Best(); ok {
		resp.Best = best.Carton.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleShipment(w http.ResponseWriter, r *http.Request) {
	var req shipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	// Every feasible carton may take part in the mix.
	req.Limit = 0
	rec, ok := h.recommend(w, r, req.recommendRequest)
	if !ok {
		return
	}

	plan, err := h.planner.Plan(req.OrderQuantity, shipment.FromOptions(rec.Options))
	if err != nil {
		switch {
		case errors.Is(err, shipment.ErrNoCandidates):
			writeError(w, http.StatusUnprocessableEntity, "Cannot pack",
				"no carton in the catalog can hold the product",
				"Add a larger carton to the catalog or reduce deductions")
		case errors.Is(err, shipment.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, shipmentResponse{
		Plan:              plan,
		Rejected:          rec.Rejected,
		CalculationTimeUs: time.Since(start).Microseconds(),
	})
}

// recommend ranks the catalog for req. It writes the error response itself and
// reports false when the request is finished.
func (h *Handler) recommend(w http.ResponseWriter, r *http.Request, req recommendRequest) (ranking.Recommendation, bool) {
	cartons, err := h.catalog.List()
	if err != nil {
		writeInternalError(w, err)
		return ranking.Recommendation{}, false
	}

	rec, err := h.ranker.Recommend(r.Context(), cartons, ranking.Options{
		Product: quote.Product{
			Dimensions: req.Product.toDimensions(),
			UnitWeight: req.UnitWeight,
			UnitCost:   req.UnitCost,
		},
		DividerThickness: dividerOrDefault(req.DividerThickness, h.dividerThickness),
		Deduction:        req.Deduction.orDefault(h.deduction),
		MaxWeight:        req.MaxWeight,
		Limit:            req.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, packing.ErrInvalidDimension), errors.Is(err, catalog.ErrInvalidDeduction):
			writeError(w, http.StatusBadRequest, "Invalid dimension", err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
		default:
			writeInternalError(w, err)
		}
		return ranking.Recommendation{}, false
	}

	rejected := make(map[string]int)
	for _, rj := range rec.Rejected {
		rejected[rj.Reason]++
	}
	metrics.RecordCandidates(len(rec.Options), rejected)

	return rec, true
}

type packingPlan struct {
	carton   catalog.Carton
	interior packing.Dimensions
	result   packing.Result
	quote    quote.Quote
	elapsed  time.Duration
}

// plan resolves the carton, runs the optimizer and builds the quote. It writes
// the error response itself and reports false when the request is finished.
func (h *Handler) plan(w http.ResponseWriter, req optimizeRequest) (packingPlan, bool) {
	var p packingPlan

	if req.CartonInterior != nil {
		p.interior = req.CartonInterior.toDimensions()
	} else {
		carton, err := h.catalog.Get(req.Carton)
		if err != nil {
			if errors.Is(err, catalog.ErrCartonNotFound) {
				writeError(w, http.StatusNotFound, "Unknown carton", err.Error())
				return p, false
			}
			writeInternalError(w, err)
			return p, false
		}
		deduction := req.Deduction.orDefault(h.deduction)
		if err := deduction.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid dimension", err.Error())
			return p, false
		}
		p.carton = carton
		p.interior = carton.Interior(deduction)
	}

	start := time.Now()
	result, ok, err := h.optimizer.Optimize(packing.Request{
		Carton:           p.interior,
		Product:          req.Product.toDimensions(),
		DividerThickness: dividerOrDefault(req.DividerThickness, h.dividerThickness),
		Orientation:      packing.Orientation(req.Orientation),
	})
	p.elapsed = time.Since(start)

	switch {
	case err != nil:
		metrics.RecordOptimization(p.elapsed, metrics.OutcomeInvalid)
		if errors.Is(err, packing.ErrInvalidDimension) || errors.Is(err, packing.ErrUnknownOrientation) {
			writeError(w, http.StatusBadRequest, "Invalid dimension", err.Error())
			return p, false
		}
		writeInternalError(w, err)
		return p, false
	case !ok:
		metrics.RecordOptimization(p.elapsed, metrics.OutcomeInfeasible)
		writeError(w, http.StatusUnprocessableEntity, "Cannot pack",
			"the product does not fit the carton in any allowed orientation",
			"Choose a larger carton, reduce deductions or allow another orientation")
		return p, false
	}
	metrics.RecordOptimization(p.elapsed, metrics.OutcomePacked)

	q, err := quote.Build(result, p.carton, p.interior, quote.Product{
		Dimensions: req.Product.toDimensions(),
		UnitWeight: req.UnitWeight,
		UnitCost:   req.UnitCost,
	})
	if err != nil {
		writeInternalError(w, err)
		return p, false
	}

	p.result = result
	p.quote = q
	return p, true
}

func (h *Handler) currentCartonsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cartonsUpdatedAt
}

func (h *Handler) markCartonsUpdated() {
	h.mu.Lock()
	h.cartonsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationLabel(err), validationDetails(err))
		return false
	}
	return true
}

type optimizeResponse struct {
	Carton            string             `json:"carton,omitempty"`
	Interior          packing.Dimensions `json:"interior"`
	Packing           packing.Result     `json:"packing"`
	Quote             quote.Quote        `json:"quote"`
	CalculationTimeUs int64              `json:"calculationTimeUs"`
}

type recommendResponse struct {
	Best              string             `json:"best,omitempty"`
	Options           []ranking.Option   `json:"options"`
	Rejected          []ranking.Rejected `json:"rejected"`
	CalculationTimeUs int64              `json:"calculationTimeUs"`
}

type shipmentResponse struct {
	Plan              shipment.Plan      `json:"plan"`
	Rejected          []ranking.Rejected `json:"rejected"`
	CalculationTimeUs int64              `json:"calculationTimeUs"`
}

type cartonsResponse struct {
	Cartons   []catalog.Carton `json:"cartons"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Message   string           `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
