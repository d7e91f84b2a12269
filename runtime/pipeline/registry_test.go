package pipeline

import (
	"context"
	"testing"

	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

type noopStage struct{ name string }

func (s noopStage) Name() string  { return s.name }
func (s noopStage) Enabled() bool { return true }
func (s noopStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	return r, stage.Continue, nil
}

func TestPluginRegistry_BuildsRegisteredKind(t *testing.T) {
	RegisterPlugin("test_noop_"+t.Name(), func(_ context.Context, spec plugin.Specification) (stage.Stage, error) {
		return noopStage{name: spec.Name}, nil
	})

	s, err := BuildPlugin(context.Background(), plugin.Specification{Kind: "test_noop_" + t.Name(), Name: "x"})
	if err != nil {
		t.Fatalf("BuildPlugin: %v", err)
	}
	if s.Name() != "x" {
		t.Fatalf("Name = %q, want x", s.Name())
	}
}

func TestPluginRegistry_UnknownKindErrors(t *testing.T) {
	if _, err := BuildPlugin(context.Background(), plugin.Specification{Kind: "does_not_exist_kind"}); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}
