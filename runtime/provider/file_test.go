package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileProvider_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fluxlog.yaml")
	content := "minLevel: warn\nsinks: [stdout, loki]\nsamplingRate: 0.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := NewFileProvider(path)
	spec, version, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if version == "" {
		t.Fatalf("expected non-empty version")
	}
	if spec.MinLevel == nil || spec.MinLevel.String() != "warn" {
		t.Fatalf("MinLevel = %v, want warn", spec.MinLevel)
	}
	if len(spec.Sinks) != 2 || spec.Sinks[0] != "stdout" {
		t.Fatalf("Sinks = %v", spec.Sinks)
	}
	if spec.SamplingRate == nil || *spec.SamplingRate != 0.5 {
		t.Fatalf("SamplingRate = %v, want 0.5", spec.SamplingRate)
	}
}

func TestFileProvider_MissingFileYieldsNilSpecNotError(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	spec, version, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if spec != nil || version != "" {
		t.Fatalf("expected nil spec and empty version for missing file")
	}
}

func TestFileProvider_InvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("minLevel: [not, a, scalar"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := NewFileProvider(path)
	if _, _, err := p.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileProvider_WatchUnsupported(t *testing.T) {
	p := NewFileProvider("irrelevant.yaml")
	stream, err := p.Watch(context.Background())
	if stream != nil || err != nil {
		t.Fatalf("Watch = (%v, %v), want (nil, nil)", stream, err)
	}
}

func TestFileProvider_NameAndPriority(t *testing.T) {
	p := NewFileProvider("/etc/fluxlog.yaml")
	if p.Name() != "file:/etc/fluxlog.yaml" {
		t.Fatalf("Name = %q", p.Name())
	}
	if p.Priority() != DefaultFilePriority {
		t.Fatalf("Priority = %d, want %d", p.Priority(), DefaultFilePriority)
	}
	p.WithPriority(99)
	if p.Priority() != 99 {
		t.Fatalf("Priority after WithPriority = %d, want 99", p.Priority())
	}
}
