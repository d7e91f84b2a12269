package pipeline

import (
	"context"
	"testing"

	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

type appendFieldStage struct {
	key, value string
}

func (s appendFieldStage) Name() string  { return "append:" + s.key }
func (s appendFieldStage) Enabled() bool { return true }
func (s appendFieldStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	return r.WithFields(field.New(s.key, s.value)), stage.Continue, nil
}

func TestDynamicStages_AppendRunsInOrder(t *testing.T) {
	d := NewDynamicStages()
	if err := d.Append("a", appendFieldStage{"a", "1"}); err != nil {
		t.Fatalf("Append a: %v", err)
	}
	if err := d.Append("b", appendFieldStage{"b", "2"}); err != nil {
		t.Fatalf("Append b: %v", err)
	}

	out, dec, err := d.Process(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Continue {
		t.Fatalf("dec = %v, want Continue", dec)
	}
	if len(out.Fields) != 2 || out.Fields[0].Key != "a" || out.Fields[1].Key != "b" {
		t.Fatalf("unexpected fields: %+v", out.Fields)
	}
}

func TestDynamicStages_RejectsDuplicateName(t *testing.T) {
	d := NewDynamicStages()
	if err := d.Append("a", appendFieldStage{"a", "1"}); err != nil {
		t.Fatalf("Append a: %v", err)
	}
	if err := d.Append("a", appendFieldStage{"a", "2"}); err == nil {
		t.Fatalf("expected error registering duplicate name")
	}
}

func TestDynamicStages_Remove(t *testing.T) {
	d := NewDynamicStages()
	_ = d.Append("a", appendFieldStage{"a", "1"})
	d.Remove("a")
	if names := d.Names(); len(names) != 0 {
		t.Fatalf("Names() = %v, want empty", names)
	}
}
