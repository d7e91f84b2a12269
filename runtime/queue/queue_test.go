package queue

import (
	"context"
	"testing"
	"time"

	aqueue "github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
)

func TestBoundedQueue_EnqueueDequeue(t *testing.T) {
	q := New(Options{Capacity: 4})
	ctx := context.Background()

	r := record.Record{Message: "hello"}
	if got := q.Enqueue(ctx, r); got != aqueue.Enqueued {
		t.Fatalf("Enqueue outcome = %v, want Enqueued", got)
	}

	batch := q.Dequeue(ctx, 10)
	if len(batch) != 1 || batch[0].Message != "hello" {
		t.Fatalf("Dequeue = %+v, want one record with message hello", batch)
	}
}

func TestBoundedQueue_OverflowDrop(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: aqueue.OverflowDrop})
	ctx := context.Background()

	if got := q.Enqueue(ctx, record.Record{Message: "1"}); got != aqueue.Enqueued {
		t.Fatalf("first Enqueue = %v, want Enqueued", got)
	}
	if got := q.Enqueue(ctx, record.Record{Message: "2"}); got != aqueue.Dropped {
		t.Fatalf("second Enqueue = %v, want Dropped", got)
	}
	if m := q.Metrics(); m.Dropped != 1 {
		t.Fatalf("Metrics().Dropped = %d, want 1", m.Dropped)
	}
}

func TestBoundedQueue_OverflowBlockUnblocksOnDequeue(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: aqueue.OverflowBlock})
	ctx := context.Background()

	q.Enqueue(ctx, record.Record{Message: "1"})

	done := make(chan aqueue.Outcome, 1)
	go func() {
		done <- q.Enqueue(ctx, record.Record{Message: "2"})
	}()

	// Give the blocked goroutine a moment to actually block.
	time.Sleep(20 * time.Millisecond)
	q.Dequeue(ctx, 1)

	select {
	case outcome := <-done:
		if outcome != aqueue.Enqueued {
			t.Fatalf("blocked Enqueue outcome = %v, want Enqueued", outcome)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked Enqueue never unblocked")
	}
}

func TestBoundedQueue_OverflowBlockCanceled(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: aqueue.OverflowBlock})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	q.Enqueue(context.Background(), record.Record{Message: "1"})

	if got := q.Enqueue(ctx, record.Record{Message: "2"}); got != aqueue.Canceled {
		t.Fatalf("Enqueue outcome = %v, want Canceled", got)
	}
}

func TestBoundedQueue_OverflowSampleDropsAfterWait(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: aqueue.OverflowSample, SampleWait: 10 * time.Millisecond})
	ctx := context.Background()

	q.Enqueue(ctx, record.Record{Message: "1"})

	start := time.Now()
	outcome := q.Enqueue(ctx, record.Record{Message: "2"})
	elapsed := time.Since(start)

	if outcome != aqueue.Dropped {
		t.Fatalf("outcome = %v, want Dropped", outcome)
	}
	if elapsed < 10*time.Millisecond {
		t.Fatalf("Enqueue returned before SampleWait elapsed: %v", elapsed)
	}
}

func TestBoundedQueue_OverflowSampleGateDropsImmediatelyOnFailedTrial(t *testing.T) {
	// A zero SampleRate means the default of 1, so a near-zero rate is
	// used to make the trial fail.
	q := New(Options{Capacity: 1, Policy: aqueue.OverflowSample, SampleWait: time.Second, SampleRate: 1e-9})
	ctx := context.Background()

	q.Enqueue(ctx, record.Record{Message: "1"})

	start := time.Now()
	outcome := q.Enqueue(ctx, record.Record{Message: "2"})
	elapsed := time.Since(start)

	if outcome != aqueue.Dropped {
		t.Fatalf("outcome = %v, want Dropped", outcome)
	}
	if elapsed >= time.Second {
		t.Fatalf("Enqueue waited for SampleWait despite a failed sampling trial: %v", elapsed)
	}
}

func TestBoundedQueue_MetricsTracksPeakSizeAndTotalDequeued(t *testing.T) {
	q := New(Options{Capacity: 10})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, record.Record{Message: "x"})
	}
	q.Dequeue(ctx, 2)

	m := q.Metrics()
	if m.PeakSize < 5 {
		t.Fatalf("Metrics().PeakSize = %d, want >= 5", m.PeakSize)
	}
	if m.TotalDequeued != 2 {
		t.Fatalf("Metrics().TotalDequeued = %d, want 2", m.TotalDequeued)
	}
	if m.EnqueueLatency < 0 {
		t.Fatalf("Metrics().EnqueueLatency = %v, want >= 0", m.EnqueueLatency)
	}
}

func TestBoundedQueue_DequeueBatches(t *testing.T) {
	q := New(Options{Capacity: 10})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, record.Record{Message: "x"})
	}

	batch := q.Dequeue(ctx, 3)
	if len(batch) != 3 {
		t.Fatalf("len(batch) = %d, want 3", len(batch))
	}
}

func TestBoundedQueue_CloseRejectsEnqueue(t *testing.T) {
	q := New(Options{Capacity: 2})
	q.Close()

	if got := q.Enqueue(context.Background(), record.Record{}); got != aqueue.Dropped {
		t.Fatalf("Enqueue after Close = %v, want Dropped", got)
	}
}

func TestBoundedQueue_DrainOnShutdownCountsLeftovers(t *testing.T) {
	q := New(Options{Capacity: 4})
	ctx := context.Background()
	q.Enqueue(ctx, record.Record{Message: "1"})
	q.Enqueue(ctx, record.Record{Message: "2"})

	q.Close()
	n := q.DrainOnShutdown()
	if n != 2 {
		t.Fatalf("DrainOnShutdown() = %d, want 2", n)
	}
	if m := q.Metrics(); m.DroppedOnShutdown != 2 {
		t.Fatalf("Metrics().DroppedOnShutdown = %d, want 2", m.DroppedOnShutdown)
	}
}

func TestBoundedQueue_DequeueReturnsNilOnCanceledContext(t *testing.T) {
	q := New(Options{Capacity: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := q.Dequeue(ctx, 1); got != nil {
		t.Fatalf("Dequeue on canceled ctx = %v, want nil", got)
	}
}
