/*
   Copyright 2025 The FluxLog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package stdout implements apis/sink.Sink over os.Stdout, with an
// optional colorized human-readable layout for interactive terminals.
package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	asink "github.com/fluxlog/fluxlog/apis/sink"
)

// Mode selects how entries are rendered to stdout.
type Mode string

const (
	// ModeJSON writes each entry as-is: the pipeline renderer already
	// produced compact JSON, so this mode is a direct passthrough.
	ModeJSON Mode = "json"

	// ModePretty decodes each entry's JSON and re-renders it as a
	// single ANSI-colored, human-friendly line.
	ModePretty Mode = "pretty"

	// ModeAuto picks ModePretty when stdout is an interactive terminal,
	// ModeJSON otherwise (e.g. piped to a file or log collector).
	ModeAuto Mode = "auto"
)

// Options configures the stdout sink.
type Options struct {
	// Mode selects the rendering strategy. Defaults to ModeAuto.
	Mode Mode

	// Writer overrides the underlying writer (tests only). When nil,
	// os.Stdout (wrapped by go-colorable on Windows) is used.
	Writer io.Writer

	// Name overrides the sink's reported name. Defaults to "stdout".
	Name string
}

type stdoutSink struct {
	name   string
	pretty bool
	mu     sync.Mutex
	w      io.Writer
}

var _ asink.Sink = (*stdoutSink)(nil)

// New constructs a stdout sink. Resolution of ModeAuto happens once,
// at construction time.
func New(opt Options) asink.Sink {
	name := opt.Name
	if name == "" {
		name = "stdout"
	}

	mode := opt.Mode
	if mode == "" {
		mode = ModeAuto
	}

	w := opt.Writer
	if w == nil {
		w = colorable.NewColorable(os.Stdout)
	}

	pretty := mode == ModePretty
	if mode == ModeAuto {
		pretty = opt.Writer == nil && isatty.IsTerminal(os.Stdout.Fd())
	}

	return &stdoutSink{name: name, pretty: pretty, w: w}
}

func (s *stdoutSink) Name() string { return s.name }

// Write renders entry (a single JSON-encoded log line produced by the
// pipeline's renderer stage) to stdout. In json mode the bytes are
// written through unchanged; in pretty mode they are decoded and
// recolored.
func (s *stdoutSink) Write(ctx context.Context, entry []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := entry
	if s.pretty {
		out = renderPretty(entry)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(out)
	return err
}

// Flush is a no-op: writes to os.Stdout are unbuffered from fluxlog's
// point of view.
func (s *stdoutSink) Flush(context.Context) error { return nil }

// Close is a no-op: stdout is not owned by this sink.
func (s *stdoutSink) Close(context.Context) error { return nil }

// ANSI color codes for level highlighting.
const (
	colorReset  = "\x1b[0m"
	colorGray   = "\x1b[90m"
	colorCyan   = "\x1b[36m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorMagenta = "\x1b[35m"
)

func levelColor(level string) string {
	switch level {
	case "trace":
		return colorGray
	case "debug":
		return colorCyan
	case "info":
		return colorGreen
	case "warn", "warning":
		return colorYellow
	case "error":
		return colorRed
	case "fatal":
		return colorMagenta
	default:
		return colorReset
	}
}

// renderPretty best-effort decodes a JSON log line and re-renders it as
// "TIME LEVEL message  key=value ...". If entry isn't a JSON object, it
// is returned unchanged: a sink must never drop data it can't parse.
func renderPretty(entry []byte) []byte {
	var fields map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(entry), &fields); err != nil {
		return entry
	}

	ts, _ := fields["ts"].(string)
	if ts == "" {
		ts, _ = fields["timestamp"].(string)
	}
	level, _ := fields["level"].(string)
	msg, _ := fields["msg"].(string)
	if msg == "" {
		msg, _ = fields["message"].(string)
	}

	var buf bytes.Buffer
	buf.WriteString(colorGray)
	buf.WriteString(ts)
	buf.WriteString(colorReset)
	buf.WriteByte(' ')

	c := levelColor(level)
	buf.WriteString(c)
	fmt.Fprintf(&buf, "%-5s", level)
	buf.WriteString(colorReset)
	buf.WriteByte(' ')
	buf.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case "ts", "timestamp", "level", "msg", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "  %s%s=%v%s", colorGray, k, fields[k], colorReset)
	}
	return buf.Bytes()
}
