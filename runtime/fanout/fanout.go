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

package fanout

import (
	"bytes"
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fluxlog/fluxlog/apis/health"
	"github.com/fluxlog/fluxlog/apis/record"
	"github.com/fluxlog/fluxlog/apis/sink"
)

// RetryConfig controls per-sink retry backoff.
type RetryConfig struct {
	// MaxRetries is how many retries are attempted after the first
	// try (so MaxRetries+1 total attempts). Default 3.
	MaxRetries int
	// InitialDelay is the base delay before the first retry. Default
	// 200ms; doubles every subsequent attempt.
	InitialDelay time.Duration
	// MaxDelay caps the computed backoff before jitter. Default 60s.
	MaxDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 200 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 60 * time.Second
	}
	return c
}

// sinkTarget pairs a sink with its own retry state.
type sinkTarget struct {
	sink        sink.Sink
	breaker     *breaker
	classifier  ErrClassifier
	onSinkError func(sinkName string, err error)
}

// Fanout dispatches rendered records to every registered sink
// concurrently, retrying transient failures and tripping each sink's
// breaker independently. Dispatch waits for every sink to finish and
// sets no deadline of its own, so a slow sink delays the return of the
// whole dispatch.
type Fanout struct {
	targets []*sinkTarget
	retry   RetryConfig

	health *health.Aggregator
}

// Options configures a Fanout.
type Options struct {
	Retry   RetryConfig
	Breaker BreakerConfig
	// Health, if non-nil, receives a Checker registration per sink
	// reflecting its circuit breaker state.
	Health *health.Aggregator
	// OnSinkError, if non-nil, is called once per sink whenever delivery
	// to that sink exhausts its retries or the error is classified
	// Permanent. It is the fallback-channel diagnostic hook: the sink
	// name and the last delivery error are reported and the record
	// itself is otherwise dropped.
	OnSinkError func(sinkName string, err error)
}

// New builds a Fanout over sinks, each paired with classifier (or
// DefaultErrClassifier if nil).
func New(sinks []sink.Sink, classifier ErrClassifier, opts Options) *Fanout {
	if classifier == nil {
		classifier = DefaultErrClassifier
	}
	f := &Fanout{retry: opts.Retry.withDefaults(), health: opts.Health}
	for _, s := range sinks {
		t := &sinkTarget{sink: s, breaker: newBreaker(opts.Breaker), classifier: classifier, onSinkError: opts.OnSinkError}
		f.targets = append(f.targets, t)
		if f.health != nil {
			f.health.Add("sink:"+s.Name(), health.CheckFunc(t.healthCheck))
		}
	}
	return f
}

func (t *sinkTarget) healthCheck(context.Context) (health.Result, error) {
	state := t.breaker.State()
	status := health.StatusHealthy
	switch state {
	case "open":
		status = health.StatusUnhealthy
	case "half_open":
		status = health.StatusDegraded
	}
	return health.Result{
		Name:   "sink:" + t.sink.Name(),
		Status: status,
		Details: map[string]any{
			"circuit_breaker": state,
		},
	}, nil
}

// Dispatch delivers every record in batch to every sink concurrently.
// It never returns an error: delivery failures are retried internally
// and, once retries are exhausted or the error is classified Permanent,
// dropped with the breaker tripped and reported once via OnSinkError;
// the caller (the queue worker) has nowhere useful to route a
// cross-sink error anyway.
func (f *Fanout) Dispatch(ctx context.Context, batch []record.Record) {
	if len(batch) == 0 || len(f.targets) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range f.targets {
		t := t
		g.Go(func() error {
			f.deliverBatch(gctx, t, batch)
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Fanout) deliverBatch(ctx context.Context, t *sinkTarget, batch []record.Record) {
	if bw, ok := t.sink.(sink.BatchWriter); ok {
		f.deliverBatchNative(ctx, t, bw, batch)
		return
	}
	for _, r := range batch {
		f.deliverOne(ctx, t, r)
	}
}

// deliverBatchNative uses a sink's native BatchWriter instead of the
// generic per-entry retry loop. The whole batch is retried as a unit:
// BatchWriter's contract promises all-or-nothing application, so a
// partial-batch retry would risk duplicate delivery of the entries that
// already landed.
func (f *Fanout) deliverBatchNative(ctx context.Context, t *sinkTarget, bw sink.BatchWriter, batch []record.Record) {
	if !t.breaker.Allow() {
		return
	}

	payloads := make([]sink.BatchEntry, 0, len(batch))
	for _, r := range batch {
		var p []byte
		if len(r.Message) > 0 {
			p = []byte(r.Message)
		} else {
			p = encodeFallback(r)
		}
		payloads = append(payloads, sink.BatchEntry{Payload: p, Time: r.Time})
	}

	attempts := f.retry.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := bw.WriteBatch(ctx, payloads)
		if err == nil {
			t.breaker.RecordSuccess()
			return
		}
		lastErr = err

		if t.classifier.Classify(err) == Permanent {
			break
		}
		if attempt == attempts {
			break
		}
		if !sleepWithJitter(ctx, f.retry.InitialDelay, f.retry.MaxDelay, attempt) {
			break
		}
	}
	if lastErr != nil {
		t.breaker.RecordFailure()
		if t.onSinkError != nil {
			t.onSinkError(t.sink.Name(), lastErr)
		}
	}
}

func (f *Fanout) deliverOne(ctx context.Context, t *sinkTarget, r record.Record) {
	if !t.breaker.Allow() {
		return
	}

	var payload []byte
	if len(r.Message) > 0 {
		payload = []byte(r.Message)
	} else {
		payload = encodeFallback(r)
	}

	attempts := f.retry.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := t.sink.Write(ctx, payload)
		if err == nil {
			t.breaker.RecordSuccess()
			return
		}
		lastErr = err

		if t.classifier.Classify(err) == Permanent {
			break
		}
		if attempt == attempts {
			break
		}
		if !sleepWithJitter(ctx, f.retry.InitialDelay, f.retry.MaxDelay, attempt) {
			break
		}
	}
	if lastErr != nil {
		t.breaker.RecordFailure()
		if t.onSinkError != nil {
			t.onSinkError(t.sink.Name(), lastErr)
		}
	}
}

// encodeFallback is used only if a record never went through a
// renderer stage (defensive; the pipeline always renders before
// enqueueing).
func encodeFallback(r record.Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(r.Message)
	return buf.Bytes()
}

// sleepWithJitter waits delay*2^(attempt-1), capped at maxDelay, with
// uniform jitter in [0, delay]. Returns false if ctx ended first.
func sleepWithJitter(ctx context.Context, initial, maxDelay time.Duration, attempt int) bool {
	delay := initial * time.Duration(1<<uint(attempt-1))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(delay) + 1))

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
