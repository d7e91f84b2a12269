package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	aqueue "github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
	runqueue "github.com/fluxlog/fluxlog/runtime/queue"
)

func TestWorker_DeliversEnqueuedRecords(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 10})

	var mu sync.Mutex
	var delivered []record.Record
	dispatch := func(_ context.Context, batch []record.Record) {
		mu.Lock()
		delivered = append(delivered, batch...)
		mu.Unlock()
	}

	w := Start(q, dispatch, Options{PollInterval: 20 * time.Millisecond})
	defer w.Stop()

	q.Enqueue(context.Background(), record.Record{Message: "a"})
	q.Enqueue(context.Background(), record.Record{Message: "b"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 2 {
		t.Fatalf("delivered = %d records, want 2", len(delivered))
	}
}

func TestWorker_StopDrainsBufferedRecords(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 10})

	var mu sync.Mutex
	var delivered int
	dispatch := func(_ context.Context, batch []record.Record) {
		mu.Lock()
		delivered += len(batch)
		mu.Unlock()
	}

	w := Start(q, dispatch, Options{PollInterval: 10 * time.Millisecond, ShutdownDrain: time.Second})

	for i := 0; i < 5; i++ {
		q.Enqueue(context.Background(), record.Record{Message: "x"})
	}

	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if delivered != 5 {
		t.Fatalf("delivered = %d, want 5", delivered)
	}
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 2})
	w := Start(q, func(context.Context, []record.Record) {}, Options{})

	w.Stop()
	w.Stop() // must not panic or block
}

func TestWorker_StopClosesQueueToFutureEnqueues(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 10})
	w := Start(q, func(context.Context, []record.Record) {}, Options{PollInterval: 10 * time.Millisecond})

	w.Stop()

	if got := q.Enqueue(context.Background(), record.Record{}); got != aqueue.Dropped {
		t.Fatalf("Enqueue after Stop = %v, want Dropped", got)
	}
}
