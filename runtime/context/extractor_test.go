package context

import (
	"context"
	"testing"

	acontext "github.com/fluxlog/fluxlog/apis/context"
)

func TestStoreExtractor_ProjectsKnownKeys(t *testing.T) {
	s := New()
	ctx, err := s.Bind(context.Background(), map[string]any{
		"trace_id":  "trace-1",
		"operation": "CreateOrder",
		"unrelated": "dropped",
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	p := NewStoreExtractor(s).Extract(ctx)
	if p.TraceID != "trace-1" {
		t.Fatalf("TraceID = %q, want trace-1", p.TraceID)
	}
	if p.Operation != "CreateOrder" {
		t.Fatalf("Operation = %q, want CreateOrder", p.Operation)
	}
}

func TestStoreExtractor_EmptyFrameYieldsZeroPack(t *testing.T) {
	p := NewStoreExtractor(New()).Extract(context.Background())
	if !p.IsZero() {
		t.Fatalf("expected zero Pack, got %+v", p)
	}
}

func TestChain_StaticThenStoreOverrides(t *testing.T) {
	base := acontext.Static(acontext.Pack{Service: "svc", Env: "prod"})
	s := New()
	ctx, _ := s.Bind(context.Background(), map[string]any{"env": "staging"})

	p := acontext.Chain(base, NewStoreExtractor(s)).Extract(ctx)
	if p.Service != "svc" {
		t.Fatalf("Service = %q, want svc", p.Service)
	}
	if p.Env != "staging" {
		t.Fatalf("Env = %q, want staging (store should override static base)", p.Env)
	}
}
