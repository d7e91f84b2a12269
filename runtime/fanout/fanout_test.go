package fanout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fluxlog/fluxlog/apis/health"
	"github.com/fluxlog/fluxlog/apis/record"
	"github.com/fluxlog/fluxlog/apis/sink"
)

type fakeSink struct {
	name string

	mu      sync.Mutex
	writes  []string
	failN   int32 // fail this many calls before succeeding
	failAll bool
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Write(_ context.Context, entry []byte) error {
	if s.failAll {
		return fmt.Errorf("permanent failure")
	}
	if atomic.AddInt32(&s.failN, -1) >= 0 {
		return fmt.Errorf("transient failure")
	}
	s.mu.Lock()
	s.writes = append(s.writes, string(entry))
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Flush(context.Context) error      { return nil }
func (s *fakeSink) Close(context.Context) error      { return nil }
func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type fakeBatchSink struct {
	name string

	mu      sync.Mutex
	batches [][]string
	failAll bool
}

func (s *fakeBatchSink) Name() string                       { return s.name }
func (s *fakeBatchSink) Write(context.Context, []byte) error { return fmt.Errorf("unused") }
func (s *fakeBatchSink) Flush(context.Context) error         { return nil }
func (s *fakeBatchSink) Close(context.Context) error         { return nil }

func (s *fakeBatchSink) WriteBatch(_ context.Context, entries []sink.BatchEntry) error {
	if s.failAll {
		return fmt.Errorf("permanent batch failure")
	}
	strs := make([]string, len(entries))
	for i, e := range entries {
		strs[i] = string(e.Payload)
	}
	s.mu.Lock()
	s.batches = append(s.batches, strs)
	s.mu.Unlock()
	return nil
}

func (s *fakeBatchSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func TestFanout_UsesNativeBatchWriterWhenAvailable(t *testing.T) {
	a := &fakeBatchSink{name: "batchy"}
	f := New([]sink.Sink{a}, nil, Options{Retry: RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}})

	f.Dispatch(context.Background(), []record.Record{{Message: "one"}, {Message: "two"}})

	if a.batchCount() != 1 {
		t.Fatalf("batchCount = %d, want 1 (single WriteBatch call for the whole batch)", a.batchCount())
	}
}

func TestFanout_DeliversToAllSinks(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	f := New([]sink.Sink{a, b}, nil, Options{Retry: RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}})

	f.Dispatch(context.Background(), []record.Record{{Message: "hello"}})

	if a.writeCount() != 1 || b.writeCount() != 1 {
		t.Fatalf("writeCount a=%d b=%d, want 1 each", a.writeCount(), b.writeCount())
	}
}

func TestFanout_RetriesTransientFailures(t *testing.T) {
	a := &fakeSink{name: "a", failN: 2}
	f := New([]sink.Sink{a}, nil, Options{Retry: RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}})

	f.Dispatch(context.Background(), []record.Record{{Message: "x"}})

	if a.writeCount() != 1 {
		t.Fatalf("writeCount = %d, want 1 after retries succeeded", a.writeCount())
	}
}

func TestFanout_PermanentErrorSkipsRetries(t *testing.T) {
	a := &fakeSink{name: "a", failAll: true}
	classifier := ErrClassifierFunc(func(error) Class { return Permanent })
	f := New([]sink.Sink{a}, classifier, Options{Retry: RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		Breaker: BreakerConfig{FailureThreshold: 100}})

	f.Dispatch(context.Background(), []record.Record{{Message: "x"}})

	if a.writeCount() != 0 {
		t.Fatalf("writeCount = %d, want 0", a.writeCount())
	}
}

func TestFanout_BreakerTripsAfterThresholdAndReportsHealth(t *testing.T) {
	a := &fakeSink{name: "flaky", failAll: true}
	agg := health.NewAggregator()
	f := New([]sink.Sink{a}, nil, Options{
		Retry:   RetryConfig{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Breaker: BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour},
		Health:  agg,
	})

	for i := 0; i < 3; i++ {
		f.Dispatch(context.Background(), []record.Record{{Message: "x"}})
	}

	report := agg.Run(context.Background())
	if report.Status != health.StatusUnhealthy {
		t.Fatalf("report.Status = %v, want unhealthy after breaker trips", report.Status)
	}
}

func TestFanout_PermanentErrorReportsToOnSinkError(t *testing.T) {
	a := &fakeSink{name: "a", failAll: true}
	classifier := ErrClassifierFunc(func(error) Class { return Permanent })

	var mu sync.Mutex
	var gotName string
	var gotErr error
	f := New([]sink.Sink{a}, classifier, Options{
		Retry:   RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		Breaker: BreakerConfig{FailureThreshold: 100},
		OnSinkError: func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			gotName, gotErr = name, err
		},
	})

	f.Dispatch(context.Background(), []record.Record{{Message: "x"}})

	mu.Lock()
	defer mu.Unlock()
	if gotName != "a" {
		t.Fatalf("OnSinkError name = %q, want %q", gotName, "a")
	}
	if gotErr == nil {
		t.Fatalf("OnSinkError err = nil, want non-nil")
	}
}

func TestFanout_RetryExhaustionReportsToOnSinkErrorForBatchSink(t *testing.T) {
	a := &fakeBatchSink{name: "batchy", failAll: true}

	var calls int32
	f := New([]sink.Sink{a}, nil, Options{
		Retry: RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		OnSinkError: func(name string, err error) {
			atomic.AddInt32(&calls, 1)
		},
	})

	f.Dispatch(context.Background(), []record.Record{{Message: "x"}})

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("OnSinkError calls = %d, want 1", calls)
	}
}

func TestHTTPErrClassifier_ClassifiesByStatusFamily(t *testing.T) {
	cases := []struct {
		code int
		want Class
	}{
		{408, Transient},
		{429, Transient},
		{500, Transient},
		{503, Transient},
		{400, Permanent},
		{404, Permanent},
	}
	for _, tc := range cases {
		err := httpStatusErr{code: tc.code}
		if got := HTTPErrClassifier.Classify(err); got != tc.want {
			t.Fatalf("status %d classified %v, want %v", tc.code, got, tc.want)
		}
	}
}

type httpStatusErr struct{ code int }

func (e httpStatusErr) Error() string { return fmt.Sprintf("http status %d", e.code) }
func (e httpStatusErr) StatusCode() int { return e.code }

func TestHTTPErrClassifier_FallsBackToTransientWithoutStatus(t *testing.T) {
	if got := HTTPErrClassifier.Classify(fmt.Errorf("connection refused")); got != Transient {
		t.Fatalf("classify = %v, want Transient", got)
	}
}
