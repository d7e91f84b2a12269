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

// Package pipeline implements apis/pipeline.Pipeline as a fixed-order
// chain of stage.Stage values:
//
//	level filter -> context enricher -> host/process enricher ->
//	resource enricher -> request/response enricher -> custom enrichers ->
//	field redactor -> pattern redactor -> PII auto-redactor ->
//	optional plugins (rate limiter, deduplicator, ...) -> sampler ->
//	renderer -> enqueue
//
// The order is not configurable: redaction must see every enriched
// field before it runs, and sampling must run after redaction so a
// sampled-in record is never partially masked.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
	"github.com/fluxlog/fluxlog/runtime/encoder"
)

// ErrorHandler is invoked when a stage returns an error. It never stops
// the pipeline; a stage error is recorded and processing continues with
// the record unchanged, matching fluxlog's "logging must not break the
// caller" guarantee.
type ErrorHandler func(stageName string, err error)

// Fixed is the set of builtin stages every Pipeline executes, in
// execution order. CustomEnrichers run between the builtin enrichers
// and the redaction stages, and may be empty.
type Fixed struct {
	LevelFilter             stage.Stage
	ContextEnricher         stage.Stage
	HostProcessEnricher     stage.Stage
	ResourceEnricher        stage.Stage
	RequestResponseEnricher stage.Stage
	CustomEnrichers         []stage.Stage
	FieldRedactor           stage.Stage
	PatternRedactor         stage.Stage
	PIIRedactor             stage.Stage

	// OptionalStages are configuration-selected plugins (rate limiter,
	// deduplicator, ...) inserted after redaction and before sampling,
	// in registration order. Both default off and so are typically nil
	// unless the caller opted in via apis/pipeline/plugin.
	OptionalStages []stage.Stage

	Sampler stage.Stage

	Renderer encoder.Encoder
	Queue    queue.Queue

	OnStageError ErrorHandler
}

// Pipeline implements apis/pipeline.Pipeline over a Fixed stage set.
type Pipeline struct {
	stages   []stage.Stage
	renderer encoder.Encoder
	q        queue.Queue
	onErr    ErrorHandler

	mu     sync.RWMutex
	closed bool
}

// New builds a Pipeline from f. Nil stages are skipped; CustomEnrichers
// entries that are nil are also skipped.
func New(f Fixed) *Pipeline {
	var stages []stage.Stage
	appendNonNil := func(s stage.Stage) {
		if s != nil {
			stages = append(stages, s)
		}
	}

	appendNonNil(f.LevelFilter)
	appendNonNil(f.ContextEnricher)
	appendNonNil(f.HostProcessEnricher)
	appendNonNil(f.ResourceEnricher)
	appendNonNil(f.RequestResponseEnricher)
	for _, s := range f.CustomEnrichers {
		appendNonNil(s)
	}
	appendNonNil(f.FieldRedactor)
	appendNonNil(f.PatternRedactor)
	appendNonNil(f.PIIRedactor)
	for _, s := range f.OptionalStages {
		appendNonNil(s)
	}
	appendNonNil(f.Sampler)

	onErr := f.OnStageError
	if onErr == nil {
		onErr = func(string, error) {}
	}

	return &Pipeline{
		stages:   stages,
		renderer: f.Renderer,
		q:        f.Queue,
		onErr:    onErr,
	}
}

// Emit runs r through every stage in order, then renders and enqueues
// it. A stage that returns Drop stops processing immediately. A panic
// inside a stage is recovered, reported via OnStageError, and treated
// as a non-fatal stage error: the record continues unmodified.
func (p *Pipeline) Emit(ctx context.Context, r record.Record) (err error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil
	}

	for _, s := range p.stages {
		if !s.Enabled() {
			continue
		}
		var dec stage.Decision
		r, dec, err = p.runStage(ctx, s, r)
		if err != nil {
			p.onErr(s.Name(), err)
			continue
		}
		if dec == stage.Drop {
			return nil
		}
	}

	if p.renderer == nil || p.q == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := p.renderer.Encode(&r, &buf); err != nil {
		p.onErr("renderer", err)
		return err
	}

	encoded := record.Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: string(buf.Bytes()),
		Ctx:     r.Ctx,
		Fields:  r.Fields,
		Err:     r.Err,
	}
	p.q.Enqueue(ctx, encoded)
	return nil
}

// runStage executes a single stage with panic containment.
func (p *Pipeline) runStage(ctx context.Context, s stage.Stage, r record.Record) (out record.Record, dec stage.Decision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r
			dec = stage.Continue
			err = fmt.Errorf("stage %q panicked: %v", s.Name(), rec)
		}
	}()
	next, d, serr := s.Process(ctx, r)
	if serr != nil {
		return r, stage.Continue, serr
	}
	return next, d, nil
}

// Flush is a no-op: rendering is synchronous and delivery buffering
// lives in the queue/worker/fan-out layers, which are flushed via
// Shutdown at the fluxlog.Logger level.
func (p *Pipeline) Flush(ctx context.Context) error {
	return nil
}

// Close marks the pipeline closed; subsequent Emit calls are no-ops.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
