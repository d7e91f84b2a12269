/*
   Copyright 2025 The FluxLog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package httpd exposes an apis/health.Aggregator over HTTP. It is an
// optional transport: fluxlog works fine without it, and most
// embedders will mount Handler onto their own router instead of
// running it standalone.
package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fluxlog/fluxlog/apis/health"
)

// Options configures the health HTTP surface.
type Options struct {
	// Aggregator is the health source. Required.
	Aggregator *health.Aggregator

	// Timeout bounds how long a single /healthz request waits for all
	// checkers to respond. Default 5s.
	Timeout time.Duration
}

// Handler builds a chi Router exposing two routes:
//
//	GET /healthz — runs every registered checker and returns the
//	               aggregated report as JSON. Responds 200 when the
//	               overall status is healthy or degraded, 503 when
//	               unhealthy.
//	GET /livez   — a liveness probe that never touches the checkers;
//	               it answers as long as the process is scheduling
//	               goroutines.
func Handler(opt Options) http.Handler {
	if opt.Timeout <= 0 {
		opt.Timeout = 5 * time.Second
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), opt.Timeout)
		defer cancel()

		report := opt.Aggregator.Run(ctx)

		status := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(toReportJSON(report))
	})
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})
	return r
}

// reportJSON mirrors health.Report/health.Result with an error field
// that marshals cleanly (error is not itself json.Marshaler-friendly).
type reportJSON struct {
	Status  health.Status `json:"status"`
	Results []resultJSON  `json:"results"`
}

type resultJSON struct {
	Name       string         `json:"name"`
	Status     health.Status  `json:"status"`
	Error      string         `json:"error,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
	Details    map[string]any `json:"details,omitempty"`
}

func toReportJSON(r health.Report) reportJSON {
	out := reportJSON{Status: r.Status, Results: make([]resultJSON, 0, len(r.Results))}
	for _, res := range r.Results {
		rj := resultJSON{
			Name:       res.Name,
			Status:     res.Status,
			ObservedAt: res.ObservedAt,
			Details:    res.Details,
		}
		if res.Error != nil {
			rj.Error = res.Error.Error()
		}
		out.Results = append(out.Results, rj)
	}
	return out
}
