package context

import (
	"context"
	"sync"
	"testing"

	acontext "github.com/fluxlog/fluxlog/apis/context"
)

func TestStore_BindAndGet(t *testing.T) {
	s := New()
	ctx, err := s.Bind(context.Background(), map[string]any{"request_id": "abc"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	got := s.Get(ctx)
	if got["request_id"] != "abc" {
		t.Fatalf("Get()[request_id] = %v, want abc", got["request_id"])
	}
}

func TestStore_BindRejectsNonScalar(t *testing.T) {
	s := New()
	type weird struct{ X int }

	_, err := s.Bind(context.Background(), map[string]any{"bad": weird{X: 1}})
	if err == nil {
		t.Fatalf("expected error for non-scalar field value, got nil")
	}
}

func TestStore_BindDoesNotMutateParent(t *testing.T) {
	s := New()
	base, err := s.Bind(context.Background(), map[string]any{"a": "1"})
	if err != nil {
		t.Fatalf("Bind base: %v", err)
	}

	child, err := s.Bind(base, map[string]any{"b": "2"})
	if err != nil {
		t.Fatalf("Bind child: %v", err)
	}

	if _, ok := s.Get(base)["b"]; ok {
		t.Fatalf("parent frame leaked field bound on child")
	}
	if s.Get(child)["a"] != "1" || s.Get(child)["b"] != "2" {
		t.Fatalf("child frame missing inherited or own field: %v", s.Get(child))
	}
}

func TestStore_NoLeakageBetweenConcurrentForks(t *testing.T) {
	s := New()
	parent, err := s.Bind(context.Background(), map[string]any{"trace_id": "root"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]map[string]any, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			forked, err := s.Bind(parent, map[string]any{"branch": i})
			if err != nil {
				t.Errorf("Bind branch %d: %v", i, err)
				return
			}
			results[i] = s.Get(forked)
		}(i)
	}
	wg.Wait()

	if results[0]["branch"] == results[1]["branch"] {
		t.Fatalf("expected distinct branch values, got %v and %v", results[0], results[1])
	}
	for i, r := range results {
		if r["trace_id"] != "root" {
			t.Fatalf("branch %d lost inherited trace_id: %v", i, r)
		}
	}
}

func TestStore_Clear(t *testing.T) {
	s := New()
	ctx, _ := s.Bind(context.Background(), map[string]any{"a": "1"})
	cleared := s.Clear(ctx)

	if got := s.Get(cleared); len(got) != 0 {
		t.Fatalf("Get(cleared) = %v, want empty", got)
	}
	if got := s.Get(ctx); got["a"] != "1" {
		t.Fatalf("Clear mutated the original context's frame")
	}
}

func TestStore_SnapshotAndRunWithAreIsolated(t *testing.T) {
	s := New()
	ctx, _ := s.Bind(context.Background(), map[string]any{"a": "1"})
	snap := s.Snapshot(ctx)

	// Mutate the source context after taking the snapshot.
	ctx, _ = s.Bind(ctx, map[string]any{"a": "2", "b": "new"})
	if got := s.Get(ctx); got["a"] != "2" {
		t.Fatalf("expected live context to reflect the later bind")
	}

	var observed map[string]any
	s.RunWith(snap, func(bgCtx context.Context) {
		observed = s.Get(bgCtx)
	})

	if observed["a"] != "1" {
		t.Fatalf("RunWith observed %v, want snapshot-time value a=1", observed)
	}
	if _, ok := observed["b"]; ok {
		t.Fatalf("RunWith observed a field bound after the snapshot was taken")
	}
}

func TestEnsureTraceID_GeneratesWhenAbsent(t *testing.T) {
	s := New()
	ctx := EnsureTraceID(context.Background(), s, "")

	got := s.Get(ctx)["trace_id"]
	id, ok := got.(string)
	if !ok || id == "" {
		t.Fatalf("EnsureTraceID did not bind a non-empty trace_id, got %v", got)
	}
}

func TestEnsureTraceID_PreservesIncoming(t *testing.T) {
	s := New()
	ctx := EnsureTraceID(context.Background(), s, "upstream-trace")

	if got := s.Get(ctx)["trace_id"]; got != "upstream-trace" {
		t.Fatalf("trace_id = %v, want upstream-trace", got)
	}
}

func TestEnsureTraceID_DoesNotOverwriteExisting(t *testing.T) {
	s := New()
	ctx, _ := s.Bind(context.Background(), map[string]any{"trace_id": "already-set"})
	ctx = EnsureTraceID(ctx, s, "")

	if got := s.Get(ctx)["trace_id"]; got != "already-set" {
		t.Fatalf("trace_id = %v, want already-set", got)
	}
}

var _ acontext.Store = New()
