package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestStdoutSink_JSONModePassesThrough(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Mode: ModeJSON, Writer: &buf})

	line := `{"ts":"2026-01-01T00:00:00Z","level":"info","msg":"hello"}`
	if err := s.Write(context.Background(), []byte(line)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != line+"\n" {
		t.Fatalf("got %q, want %q", got, line+"\n")
	}
}

func TestStdoutSink_PrettyModeRecolors(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Mode: ModePretty, Writer: &buf})

	line := `{"ts":"2026-01-01T00:00:00Z","level":"error","msg":"boom","request_id":"abc"}`
	if err := s.Write(context.Background(), []byte(line)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "boom") {
		t.Fatalf("output %q missing message", got)
	}
	if !strings.Contains(got, "request_id=abc") {
		t.Fatalf("output %q missing field", got)
	}
	if !strings.Contains(got, colorRed) {
		t.Fatalf("output %q missing error color", got)
	}
}

func TestStdoutSink_PrettyModeFallsBackOnNonJSON(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Mode: ModePretty, Writer: &buf})

	if err := s.Write(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "not json\n" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestStdoutSink_WriteRespectsCanceledContext(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Mode: ModeJSON, Writer: &buf})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, []byte("x")); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}

func TestStdoutSink_FlushAndCloseAreNoops(t *testing.T) {
	s := New(Options{Mode: ModeJSON, Writer: &bytes.Buffer{}})
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
