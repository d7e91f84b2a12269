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

// Package queue defines the contract for the bounded buffer that sits
// between the processing pipeline and the fan-out worker, and the
// overflow policies it may apply once that buffer is full.
package queue

import (
	"context"
	"time"

	"github.com/fluxlog/fluxlog/apis/record"
)

// OverflowPolicy controls what an Enqueue call does when the queue is
// already at capacity.
type OverflowPolicy uint8

const (
	// OverflowDrop drops the incoming record immediately and increments
	// Metrics.Dropped. The caller observes no error and no blocking.
	OverflowDrop OverflowPolicy = iota

	// OverflowBlock blocks the caller until space is available or ctx
	// is canceled, whichever happens first.
	OverflowBlock

	// OverflowSample runs a Bernoulli trial at the sampling rate: on
	// failure the record is dropped immediately; on success the caller
	// waits up to SampleWait for space before falling back to
	// OverflowDrop behavior. This bounds worst-case caller latency while
	// still giving a transient burst a chance to drain.
	OverflowSample
)

// String implements fmt.Stringer.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDrop:
		return "drop"
	case OverflowBlock:
		return "block"
	case OverflowSample:
		return "sample"
	default:
		return "unknown"
	}
}

// SampleWait is the bounded secondary wait OverflowSample applies before
// giving up and dropping, once the Bernoulli trial at SampleRate
// succeeds.
const SampleWait = 100 * time.Millisecond

// Outcome describes what happened to a record passed to Enqueue.
type Outcome uint8

const (
	// Enqueued means the record was accepted into the buffer.
	Enqueued Outcome = iota
	// Dropped means the record was discarded due to overflow.
	Dropped
	// Canceled means ctx was done before the record could be accepted
	// (only possible under OverflowBlock).
	Canceled
)

// Metrics exposes point-in-time counters for a Queue. Implementations
// must keep these safe to read concurrently with Enqueue/Dequeue.
type Metrics struct {
	// Enqueued is the total number of records accepted.
	Enqueued uint64
	// Dropped is the total number of records discarded due to overflow.
	Dropped uint64
	// DroppedOnShutdown is the subset of Dropped discarded because the
	// queue was draining at shutdown and the drain deadline elapsed
	// before they could be delivered.
	DroppedOnShutdown uint64
	// Depth is the current number of buffered records.
	Depth int
	// Capacity is the configured maximum buffer size.
	Capacity int
	// PeakSize is the highest Depth observed since the queue was
	// created.
	PeakSize int
	// TotalDequeued is the total number of records handed to a consumer
	// via Dequeue.
	TotalDequeued uint64
	// EnqueueLatency is the mean Enqueue call duration over a moving
	// window of recent calls (the time an Enqueue call itself took to
	// return, including any overflow-policy wait).
	EnqueueLatency time.Duration
}

// Queue is a bounded, single-consumer buffer of records awaiting
// delivery to sinks.
//
// Implementations MUST be safe for concurrent Enqueue calls from many
// producer goroutines; Dequeue is intended for exactly one consumer
// goroutine (the worker), though nothing prevents more.
type Queue interface {
	// Enqueue offers r to the buffer, applying the configured
	// OverflowPolicy when full. Returns the outcome so a caller that
	// cares (tests, diagnostics) can observe it; ordinary callers
	// ignore it.
	Enqueue(ctx context.Context, r record.Record) Outcome

	// Dequeue blocks until at least one record is available or ctx is
	// done, then drains up to maxBatch records without blocking
	// further. Returns nil if ctx ended the wait, or the queue was
	// closed, with nothing buffered.
	Dequeue(ctx context.Context, maxBatch int) []record.Record

	// Close stops accepting new records; a subsequent Enqueue returns
	// Dropped. Already-buffered records remain available to Dequeue
	// until the buffer is empty.
	Close()

	// DrainOnShutdown discards any records still buffered after Close,
	// counting them under Metrics().DroppedOnShutdown, and returns how
	// many were discarded. Callers invoke this once the worker has
	// stopped consuming past its drain deadline.
	DrainOnShutdown() int

	// Metrics returns a snapshot of the queue's counters.
	Metrics() Metrics
}
