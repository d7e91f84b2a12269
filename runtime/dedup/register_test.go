package dedup

import (
	"context"
	"testing"

	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
)

func TestBuild_NoAddrYieldsDisabledStage(t *testing.T) {
	s, err := build(context.Background(), plugin.Specification{Kind: "dedup"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Enabled() {
		t.Fatalf("expected disabled stage without a Redis addr")
	}
}

func TestBuild_WithAddrEnablesStage(t *testing.T) {
	s, err := build(context.Background(), plugin.Specification{
		Kind:   "dedup",
		Config: map[string]any{"addr": "127.0.0.1:6379", "window_seconds": 30},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !s.Enabled() {
		t.Fatalf("expected enabled stage with a Redis addr configured")
	}
}

func TestToConfig_RejectsUnsupportedType(t *testing.T) {
	if _, err := toConfig(42); err == nil {
		t.Fatalf("expected error for unsupported config type")
	}
}
