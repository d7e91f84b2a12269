package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogger_StageErrorWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Level: zerolog.InfoLevel})

	l.StageError("redact", errBoom)

	out := buf.String()
	if !strings.Contains(out, "redact") {
		t.Fatalf("output missing stage name: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("output missing error text: %q", out)
	}
}

func TestLogger_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Level: zerolog.ErrorLevel})

	l.BreakerStateChange("loki", "closed", "open")

	if buf.Len() != 0 {
		t.Fatalf("expected Info-level call to be filtered at Error threshold, got %q", buf.String())
	}
}

func TestLogger_QueueDroppedOnShutdownSkipsZero(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Level: zerolog.InfoLevel})

	l.QueueDroppedOnShutdown(0)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for zero dropped records, got %q", buf.String())
	}

	l.QueueDroppedOnShutdown(3)
	if !strings.Contains(buf.String(), "3") {
		t.Fatalf("expected dropped count in output, got %q", buf.String())
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}
