package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/carton-planner/internal/api"
	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	store := catalog.NewMemoryStorage()
	handler := api.NewHandler(packing.New(), store)
	logger := zaptest.NewLogger(t)
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}
	product := map[string]float64{"length": 120, "width": 80, "height": 50}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	updatePayload := map[string]any{"cartons": []map[string]any{
		{"name": "tote", "length": 600, "width": 400, "height": 300, "price": 7},
		{"name": "mailer", "length": 250, "width": 180, "height": 60, "price": 1.2},
	}}
	payload, _ := json.Marshal(updatePayload)
	rec = performRequest(t, handler, http.MethodPut, "/api/cartons", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from cartons update, got %d", rec.Code)
	}

	recommendBody, _ := json.Marshal(map[string]any{"product": product})
	rec = performRequest(t, handler, http.MethodPost, "/api/recommend", recommendBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from recommend, got %d", rec.Code)
	}

	var recommendation struct {
		Best    string `json:"best"`
		Options []struct {
			Packing struct {
				TotalCount int `json:"totalCount"`
			} `json:"packing"`
		} `json:"options"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&recommendation); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if recommendation.Best != "tote" {
		t.Fatalf("expected tote to be cheapest per unit, got %q", recommendation.Best)
	}
	if len(recommendation.Options) != 2 || recommendation.Options[0].Packing.TotalCount != 150 || recommendation.Options[1].Packing.TotalCount != 4 {
		t.Fatalf("unexpected options %+v", recommendation.Options)
	}

	optimizeBody, _ := json.Marshal(map[string]any{"carton": recommendation.Best, "product": product})
	rec = performRequest(t, handler, http.MethodPost, "/api/optimize", optimizeBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from optimize, got %d", rec.Code)
	}

	var optimized struct {
		Packing struct {
			Orientation string `json:"orientation"`
			TotalCount  int    `json:"totalCount"`
			Layers      int    `json:"layers"`
		} `json:"packing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&optimized); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if optimized.Packing.Orientation != "flat" || optimized.Packing.TotalCount != 150 || optimized.Packing.Layers != 6 {
		t.Fatalf("unexpected packing %+v", optimized.Packing)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/diagram", optimizeBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from diagram, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatalf("expected svg body")
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/optimize", optimizeBody, map[string]string{
		"Content-Type": "application/json",
		"X-Request-ID": "flow-1",
	})
	if got := rec.Header().Get("X-Request-ID"); got != "flow-1" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}
