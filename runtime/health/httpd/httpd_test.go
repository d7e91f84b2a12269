package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluxlog/fluxlog/apis/health"
)

func TestHandler_HealthyReportReturns200(t *testing.T) {
	agg := health.NewAggregator()
	agg.Add("ok", health.CheckFunc(func(context.Context) (health.Result, error) {
		return health.Result{Status: health.StatusHealthy}, nil
	}))

	h := Handler(Options{Aggregator: agg})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body reportJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != health.StatusHealthy {
		t.Fatalf("status = %q, want healthy", body.Status)
	}
}

func TestHandler_UnhealthyReportReturns503(t *testing.T) {
	agg := health.NewAggregator()
	agg.Add("broken-sink", health.CheckFunc(func(context.Context) (health.Result, error) {
		return health.Result{Status: health.StatusUnhealthy}, nil
	}))

	h := Handler(Options{Aggregator: agg})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandler_LivezNeverFails(t *testing.T) {
	h := Handler(Options{Aggregator: health.NewAggregator()})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandler_CheckerErrorSurfacesInJSON(t *testing.T) {
	agg := health.NewAggregator()
	agg.Add("flaky", health.CheckFunc(func(context.Context) (health.Result, error) {
		return health.Result{}, errBoom
	}))

	h := Handler(Options{Aggregator: agg})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h.ServeHTTP(rec, req)

	var body reportJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Error == "" {
		t.Fatalf("expected checker error in results, got %+v", body.Results)
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}
