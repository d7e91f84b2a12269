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

package pipeline

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"

	acontext "github.com/fluxlog/fluxlog/apis/context"
	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/field/fields"
	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// levelFilterStage drops any record whose level is below Min.
type levelFilterStage struct {
	min     level.Level
	enabled bool
}

// NewLevelFilter builds the first pipeline stage: records below min are
// dropped before any enrichment work is spent on them.
func NewLevelFilter(min level.Level) stage.Stage {
	return &levelFilterStage{min: min, enabled: true}
}

func (s *levelFilterStage) Name() string    { return "level_filter" }
func (s *levelFilterStage) Enabled() bool   { return s.enabled }
func (s *levelFilterStage) SetEnabled(v bool) { s.enabled = v }

func (s *levelFilterStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if r.Level < s.min {
		return r, stage.Drop, nil
	}
	return r, stage.Continue, nil
}

// contextEnricherStage merges the well-known correlation/identity Pack
// extracted from ctx into the record.
type contextEnricherStage struct {
	extractor acontext.Extractor
	enabled   bool
}

// NewContextEnricher builds a stage that fills record.Ctx from ctx using
// extractor (typically runtime/context's Store.Get wrapped as a Pack, or
// a Chain of static + per-request extractors).
func NewContextEnricher(extractor acontext.Extractor) stage.Stage {
	return &contextEnricherStage{extractor: extractor, enabled: true}
}

func (s *contextEnricherStage) Name() string    { return "context_enricher" }
func (s *contextEnricherStage) Enabled() bool   { return s.enabled }
func (s *contextEnricherStage) SetEnabled(v bool) { s.enabled = v }

func (s *contextEnricherStage) Process(ctx context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if s.extractor == nil {
		return r, stage.Continue, nil
	}
	// Caller-supplied values in r.Ctx win over extracted ones.
	r.Ctx = acontext.Merge(s.extractor.Extract(ctx), r.Ctx)
	return r, stage.Continue, nil
}

// hostProcessEnricherStage attaches hostname/pid once per process,
// caching the values since they never change during a run.
type hostProcessEnricherStage struct {
	enabled bool

	once     sync.Once
	hostname string
	pid      string
}

// NewHostProcessEnricher builds the host/process identity stage.
func NewHostProcessEnricher() stage.Stage {
	return &hostProcessEnricherStage{enabled: true}
}

func (s *hostProcessEnricherStage) Name() string    { return "host_process_enricher" }
func (s *hostProcessEnricherStage) Enabled() bool   { return s.enabled }
func (s *hostProcessEnricherStage) SetEnabled(v bool) { s.enabled = v }

func (s *hostProcessEnricherStage) resolve() (hostname, pid string) {
	s.once.Do(func() {
		h, err := os.Hostname()
		if err != nil {
			h = "unknown"
		}
		s.hostname = h
		s.pid = strconv.Itoa(os.Getpid())
	})
	return s.hostname, s.pid
}

func (s *hostProcessEnricherStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	hostname, pid := s.resolve()
	return r.WithFields(
		field.New(fields.Hostname, hostname),
		field.New(fields.PID, pid),
	), stage.Continue, nil
}

// resourceEnricherStage attaches a point-in-time resource sample
// (memory, best-effort CPU) to every record.
type resourceEnricherStage struct {
	enabled bool
	sampler ResourceSampler
}

// ResourceSampler reports process resource usage at the moment of the
// call. Implementations live in runtime/enrich; the interface is
// declared here so the pipeline does not need to import that package
// (which in turn depends on platform-specific /proc reads).
type ResourceSampler interface {
	Sample() (memoryMB float64, cpuPercent float64)
}

// NewResourceEnricher builds the resource-sampling stage. If sampler is
// nil, a minimal runtime.ReadMemStats-only sampler is used.
func NewResourceEnricher(sampler ResourceSampler) stage.Stage {
	if sampler == nil {
		sampler = memStatsOnlySampler{}
	}
	return &resourceEnricherStage{enabled: true, sampler: sampler}
}

func (s *resourceEnricherStage) Name() string    { return "resource_enricher" }
func (s *resourceEnricherStage) Enabled() bool   { return s.enabled }
func (s *resourceEnricherStage) SetEnabled(v bool) { s.enabled = v }

func (s *resourceEnricherStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	memMB, cpuPct := s.sampler.Sample()
	return r.WithFields(
		field.New(fields.MemoryMB, memMB),
		field.New(fields.CPUPercent, cpuPct),
	), stage.Continue, nil
}

type memStatsOnlySampler struct{}

func (memStatsOnlySampler) Sample() (float64, float64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / (1024 * 1024), 0
}

// requestResponseEnricherStage projects acontext.Pack.RequestResponse
// (bound by an HTTP/gRPC adapter) onto the record's fields.
type requestResponseEnricherStage struct {
	enabled bool
}

// NewRequestResponseEnricher builds the request/response metadata stage.
func NewRequestResponseEnricher() stage.Stage {
	return &requestResponseEnricherStage{enabled: true}
}

func (s *requestResponseEnricherStage) Name() string    { return "request_response_enricher" }
func (s *requestResponseEnricherStage) Enabled() bool   { return s.enabled }
func (s *requestResponseEnricherStage) SetEnabled(v bool) { s.enabled = v }

func (s *requestResponseEnricherStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	rr := r.Ctx.RequestResponse
	if rr.IsZero() {
		return r, stage.Continue, nil
	}

	var extra []field.Field
	if rr.StatusCode != nil {
		extra = append(extra, field.New(fields.StatusCode, *rr.StatusCode))
	}
	if rr.LatencyMS != nil {
		extra = append(extra, field.New(fields.LatencyMS, *rr.LatencyMS))
	}
	if rr.ReqBytes != nil {
		extra = append(extra, field.New(fields.ReqBytes, *rr.ReqBytes))
	}
	if rr.ResBytes != nil {
		extra = append(extra, field.New(fields.ResBytes, *rr.ResBytes))
	}
	if rr.UserAgent != "" {
		extra = append(extra, field.New(fields.UserAgent, rr.UserAgent))
	}
	return r.WithFields(extra...), stage.Continue, nil
}
