package provider

import (
	"context"
	"testing"
)

func fakeLookup(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestEnvProvider_BindsKnownVars(t *testing.T) {
	p := NewEnvProvider("FLUXLOG_")
	p.lookup = fakeLookup(map[string]string{
		"FLUXLOG_LEVEL":          "debug",
		"FLUXLOG_SAMPLING_RATE":  "0.25",
		"FLUXLOG_QUEUE_MAX_SIZE": "2048",
		"FLUXLOG_SINKS":          "stdout,file",
	})

	spec, version, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if version == "" {
		t.Fatalf("expected non-empty version")
	}
	if spec.MinLevel == nil || spec.MinLevel.String() != "debug" {
		t.Fatalf("MinLevel = %v", spec.MinLevel)
	}
	if spec.SamplingRate == nil || *spec.SamplingRate != 0.25 {
		t.Fatalf("SamplingRate = %v", spec.SamplingRate)
	}
	if spec.QueueMaxSize != 2048 {
		t.Fatalf("QueueMaxSize = %d, want 2048", spec.QueueMaxSize)
	}
	if len(spec.Sinks) != 2 {
		t.Fatalf("Sinks = %v", spec.Sinks)
	}
}

func TestEnvProvider_NoVarsYieldsNilSpec(t *testing.T) {
	p := NewEnvProvider("FLUXLOG_")
	p.lookup = fakeLookup(nil)

	spec, version, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if spec != nil || version != "" {
		t.Fatalf("expected nil spec when no env vars set")
	}
}

func TestEnvProvider_InvalidLevelErrors(t *testing.T) {
	p := NewEnvProvider("FLUXLOG_")
	p.lookup = fakeLookup(map[string]string{"FLUXLOG_LEVEL": "not-a-level"})

	if _, _, err := p.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestEnvProvider_DefaultPrefix(t *testing.T) {
	p := NewEnvProvider("")
	if p.Name() != "env:FLUXLOG_" {
		t.Fatalf("Name = %q", p.Name())
	}
}
