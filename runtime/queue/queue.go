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

// Package queue implements apis/queue.Queue as a fixed-capacity channel
// of records, guarded by an atomic closed flag and per-policy overflow
// handling (drop / block / sample).
package queue

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	aqueue "github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
)

// latencyWindow is how many recent Enqueue call durations are averaged
// into Metrics().EnqueueLatency.
const latencyWindow = 128

// Options configures a bounded Queue.
type Options struct {
	// Capacity is the maximum number of buffered records. Values <= 0
	// default to 1000.
	Capacity int

	// Policy selects the overflow behavior once Capacity is reached.
	Policy aqueue.OverflowPolicy

	// SampleWait overrides apis/queue.SampleWait for OverflowSample;
	// zero keeps the default.
	SampleWait time.Duration

	// SampleRate is the Bernoulli trial probability OverflowSample
	// applies before attempting its bounded wait: on failure the
	// record is dropped immediately without waiting. Zero defaults to
	// 1 (always attempt the wait), matching the pre-sampling-gate
	// behavior when a caller doesn't configure sampling_rate.
	SampleRate float64
}

type boundedQueue struct {
	ch         chan record.Record
	policy     aqueue.OverflowPolicy
	sampleWait time.Duration
	sampleRate float64
	capacity   int

	closed atomic.Bool

	enqueued          atomic.Uint64
	dropped           atomic.Uint64
	droppedOnShutdown atomic.Uint64
	totalDequeued     atomic.Uint64
	peakSize          atomic.Int64

	latencyMu   sync.Mutex
	latencyBuf  [latencyWindow]time.Duration
	latencyN    int
	latencyNext int

	closeOnce sync.Once
}

// New builds a Queue per opts.
func New(opts Options) aqueue.Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 1000
	}
	sampleWait := opts.SampleWait
	if sampleWait <= 0 {
		sampleWait = aqueue.SampleWait
	}
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1
	}
	return &boundedQueue{
		ch:         make(chan record.Record, capacity),
		policy:     opts.Policy,
		sampleWait: sampleWait,
		sampleRate: sampleRate,
		capacity:   capacity,
	}
}

func (q *boundedQueue) Enqueue(ctx context.Context, r record.Record) aqueue.Outcome {
	start := time.Now()
	outcome := q.enqueue(ctx, r)
	q.recordLatency(time.Since(start))
	return outcome
}

func (q *boundedQueue) enqueue(ctx context.Context, r record.Record) aqueue.Outcome {
	if q.closed.Load() {
		q.dropped.Add(1)
		return aqueue.Dropped
	}

	select {
	case q.ch <- r:
		q.enqueued.Add(1)
		q.trackPeak()
		return aqueue.Enqueued
	default:
	}

	switch q.policy {
	case aqueue.OverflowBlock:
		select {
		case q.ch <- r:
			q.enqueued.Add(1)
			q.trackPeak()
			return aqueue.Enqueued
		case <-ctx.Done():
			q.dropped.Add(1)
			return aqueue.Canceled
		}

	case aqueue.OverflowSample:
		if rand.Float64() >= q.sampleRate {
			q.dropped.Add(1)
			return aqueue.Dropped
		}
		timer := time.NewTimer(q.sampleWait)
		defer timer.Stop()
		select {
		case q.ch <- r:
			q.enqueued.Add(1)
			q.trackPeak()
			return aqueue.Enqueued
		case <-timer.C:
			q.dropped.Add(1)
			return aqueue.Dropped
		case <-ctx.Done():
			q.dropped.Add(1)
			return aqueue.Canceled
		}

	default: // OverflowDrop
		q.dropped.Add(1)
		return aqueue.Dropped
	}
}

// trackPeak updates peakSize with the current channel depth if it's a
// new high. Called right after a successful send, so the observed
// depth may already be stale under concurrent Dequeue, which is fine
// for a best-effort high-water mark.
func (q *boundedQueue) trackPeak() {
	depth := int64(len(q.ch))
	for {
		cur := q.peakSize.Load()
		if depth <= cur {
			return
		}
		if q.peakSize.CompareAndSwap(cur, depth) {
			return
		}
	}
}

func (q *boundedQueue) recordLatency(d time.Duration) {
	q.latencyMu.Lock()
	defer q.latencyMu.Unlock()
	q.latencyBuf[q.latencyNext] = d
	q.latencyNext = (q.latencyNext + 1) % latencyWindow
	if q.latencyN < latencyWindow {
		q.latencyN++
	}
}

func (q *boundedQueue) meanLatency() time.Duration {
	q.latencyMu.Lock()
	defer q.latencyMu.Unlock()
	if q.latencyN == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < q.latencyN; i++ {
		sum += q.latencyBuf[i]
	}
	return sum / time.Duration(q.latencyN)
}

func (q *boundedQueue) Dequeue(ctx context.Context, maxBatch int) []record.Record {
	if maxBatch <= 0 {
		maxBatch = 1
	}

	select {
	case r, ok := <-q.ch:
		if !ok {
			return nil
		}
		q.totalDequeued.Add(1)
		batch := make([]record.Record, 0, maxBatch)
		batch = append(batch, r)
		return q.drainMore(batch, maxBatch)
	case <-ctx.Done():
		return nil
	}
}

// drainMore opportunistically grabs additional already-buffered records
// without blocking, up to maxBatch.
func (q *boundedQueue) drainMore(batch []record.Record, maxBatch int) []record.Record {
	for len(batch) < maxBatch {
		select {
		case r, ok := <-q.ch:
			if !ok {
				return batch
			}
			q.totalDequeued.Add(1)
			batch = append(batch, r)
		default:
			return batch
		}
	}
	return batch
}

func (q *boundedQueue) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.ch)
	})
}

// DrainOnShutdown records any records still sitting in the channel once
// the worker's drain deadline has elapsed, so they're reflected in
// Metrics().DroppedOnShutdown rather than silently vanishing. It must
// be called after Close, once the worker has stopped consuming.
func (q *boundedQueue) DrainOnShutdown() int {
	n := 0
	for range q.ch {
		n++
		q.droppedOnShutdown.Add(1)
		q.dropped.Add(1)
	}
	return n
}

func (q *boundedQueue) Metrics() aqueue.Metrics {
	return aqueue.Metrics{
		Enqueued:          q.enqueued.Load(),
		Dropped:           q.dropped.Load(),
		DroppedOnShutdown: q.droppedOnShutdown.Load(),
		Depth:             len(q.ch),
		Capacity:          q.capacity,
		PeakSize:          int(q.peakSize.Load()),
		TotalDequeued:     q.totalDequeued.Load(),
		EnqueueLatency:    q.meanLatency(),
	}
}
