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

// Package diagnostics is fluxlog's own fallback channel: where the
// pipeline, worker, and fan-out dispatcher report problems with
// someone else's logs (a stage panicked, a sink keeps failing, a
// record couldn't be encoded) without raising into the caller or
// routing the problem back through the very pipeline that's
// misbehaving.
//
// This logger is never queued, batched, or sampled: every call writes
// straight to stderr, synchronously.
package diagnostics

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the fallback channel's handle. Call sites should hold one
// per Logger instance rather than a global, so multiple fluxlog
// instances in the same process don't interleave unrelated output.
type Logger struct {
	zl zerolog.Logger
}

// Options configures the fallback channel.
type Options struct {
	// Level is the minimum severity written. The zero value is
	// zerolog's DebugLevel.
	Level zerolog.Level

	// Writer overrides the destination (tests only). Defaults to a
	// zerolog.ConsoleWriter over os.Stderr.
	Writer io.Writer
}

// New constructs a fallback-channel Logger.
func New(opt Options) *Logger {
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if opt.Writer != nil {
		w = opt.Writer
	}
	zl := zerolog.New(w).Level(opt.Level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// StageError reports that a pipeline stage returned an error or
// recovered from a panic while processing a record. The record is not
// dropped because of this: the pipeline continues to the next stage.
func (l *Logger) StageError(stageName string, err error) {
	l.zl.Warn().Str("stage", stageName).Err(err).Msg("pipeline stage error")
}

// SinkError reports a delivery failure to a sink, after retries are
// exhausted for the current attempt.
func (l *Logger) SinkError(sinkName string, err error) {
	l.zl.Error().Str("sink", sinkName).Err(err).Msg("sink delivery failed")
}

// QueueDropped reports that a record was dropped by the bounded queue's
// overflow policy (not a crash-time drop; see QueueDroppedOnShutdown).
func (l *Logger) QueueDropped(reason string) {
	l.zl.Warn().Str("reason", reason).Msg("queue dropped a record")
}

// QueueDroppedOnShutdown reports how many buffered records were
// discarded because the shutdown drain deadline elapsed first.
func (l *Logger) QueueDroppedOnShutdown(count int) {
	if count == 0 {
		return
	}
	l.zl.Warn().Int("count", count).Msg("records abandoned at shutdown drain deadline")
}

// BreakerStateChange reports a circuit breaker transition for a sink.
func (l *Logger) BreakerStateChange(sinkName, from, to string) {
	l.zl.Info().Str("sink", sinkName).Str("from", from).Str("to", to).Msg("sink circuit breaker state changed")
}
