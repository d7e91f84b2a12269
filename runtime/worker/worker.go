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

// Package worker runs the single consumer goroutine that drains the
// bounded queue and hands batches off to the fan-out layer.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
)

// Dispatch delivers a batch of records to every configured sink. It is
// implemented by the fan-out package; worker only depends on the shape
// so the two packages can be tested independently.
type Dispatch func(ctx context.Context, batch []record.Record)

// Options configures a Worker.
type Options struct {
	// MaxBatch bounds how many records a single Dequeue call drains at
	// once. Values <= 0 default to 256.
	MaxBatch int

	// PollInterval bounds how long Dequeue blocks waiting for the first
	// record of a batch; this keeps the worker responsive to context
	// cancellation even under an idle queue. Values <= 0 default to 1s.
	PollInterval time.Duration

	// ShutdownDrain is the maximum time Stop waits for the queue to
	// fully drain before abandoning whatever remains. Abandoned
	// records are counted via queue.Queue.DrainOnShutdown.
	ShutdownDrain time.Duration
}

// Worker owns the background goroutine that pulls batches off a Queue
// and forwards them to a Dispatch function.
type Worker struct {
	q        queue.Queue
	dispatch Dispatch
	opts     Options

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the consumer goroutine and returns immediately.
func Start(q queue.Queue, dispatch Dispatch, opts Options) *Worker {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 256
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.ShutdownDrain <= 0 {
		opts.ShutdownDrain = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		q:        q,
		dispatch: dispatch,
		opts:     opts,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		pollCtx, cancelPoll := context.WithTimeout(ctx, w.opts.PollInterval)
		batch := w.q.Dequeue(pollCtx, w.opts.MaxBatch)
		cancelPoll()

		if len(batch) > 0 {
			w.dispatch(ctx, batch)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// Stop signals the worker to stop polling for new work, closes the
// queue, and drains whatever is left for up to Options.ShutdownDrain
// before abandoning it. It blocks until the worker goroutine exits.
func (w *Worker) Stop() {
	w.once.Do(func() {
		w.cancel()
		<-w.done

		w.q.Close()

		deadline := time.NewTimer(w.opts.ShutdownDrain)
		defer deadline.Stop()
		drainCtx, cancelDrain := context.WithCancel(context.Background())
		defer cancelDrain()

		go func() {
			select {
			case <-deadline.C:
				cancelDrain()
			case <-drainCtx.Done():
			}
		}()

		for {
			batch := w.q.Dequeue(drainCtx, w.opts.MaxBatch)
			if len(batch) == 0 {
				break
			}
			w.dispatch(context.Background(), batch)
		}

		w.q.DrainOnShutdown()
	})
}
