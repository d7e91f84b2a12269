package pipeline

import (
	"context"
	"testing"

	acontext "github.com/fluxlog/fluxlog/apis/context"
	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

func TestLevelFilter_DropsBelowMinimum(t *testing.T) {
	s := NewLevelFilter(level.Warn)

	_, dec, err := s.Process(context.Background(), record.Record{Level: level.Info})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Drop {
		t.Fatalf("decision = %v, want Drop", dec)
	}

	_, dec, err = s.Process(context.Background(), record.Record{Level: level.Error})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Continue {
		t.Fatalf("decision = %v, want Continue", dec)
	}
}

func TestContextEnricher_MergesExtractedPack(t *testing.T) {
	extractor := acontext.Static(acontext.Pack{Service: "billing", Env: "prod"})
	s := NewContextEnricher(extractor)

	out, dec, err := s.Process(context.Background(), record.Record{Ctx: acontext.Pack{Region: "eu"}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Continue {
		t.Fatalf("decision = %v, want Continue", dec)
	}
	if out.Ctx.Service != "billing" || out.Ctx.Env != "prod" || out.Ctx.Region != "eu" {
		t.Fatalf("Ctx = %+v, want merged fields preserved", out.Ctx)
	}
}

func TestHostProcessEnricher_AddsStableFields(t *testing.T) {
	s := NewHostProcessEnricher()

	out, _, err := s.Process(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Fields) != 2 {
		t.Fatalf("Fields = %+v, want 2 entries", out.Fields)
	}
}

func TestResourceEnricher_UsesProvidedSampler(t *testing.T) {
	s := NewResourceEnricher(fakeSampler{mem: 42, cpu: 7})

	out, _, err := s.Process(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	foundMem, foundCPU := false, false
	for _, f := range out.Fields {
		if f.Key == "memory_mb" && f.Value == 42.0 {
			foundMem = true
		}
		if f.Key == "cpu_percent" && f.Value == 7.0 {
			foundCPU = true
		}
	}
	if !foundMem || !foundCPU {
		t.Fatalf("Fields = %+v, missing expected resource fields", out.Fields)
	}
}

type fakeSampler struct{ mem, cpu float64 }

func (f fakeSampler) Sample() (float64, float64) { return f.mem, f.cpu }

func TestRequestResponseEnricher_SkipsWhenUnset(t *testing.T) {
	s := NewRequestResponseEnricher()
	out, _, err := s.Process(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Fields) != 0 {
		t.Fatalf("Fields = %+v, want none", out.Fields)
	}
}

func TestRequestResponseEnricher_ProjectsBoundMetadata(t *testing.T) {
	s := NewRequestResponseEnricher()
	status := 200
	latency := 12.5

	out, _, err := s.Process(context.Background(), record.Record{
		Ctx: acontext.Pack{
			RequestResponse: acontext.RequestResponse{
				StatusCode: &status,
				LatencyMS:  &latency,
				UserAgent:  "curl/8.0",
			},
		},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := map[string]any{"status_code": 200, "latency_ms": 12.5, "user_agent": "curl/8.0"}
	got := map[string]any{}
	for _, f := range out.Fields {
		got[f.Key] = f.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %q = %v, want %v (all fields: %+v)", k, got[k], v, got)
		}
	}
}

func TestLevelFilter_RespectsDisabled(t *testing.T) {
	s := NewLevelFilter(level.Error).(*levelFilterStage)
	s.SetEnabled(false)
	if s.Enabled() {
		t.Fatalf("Enabled() = true after SetEnabled(false)")
	}
}
