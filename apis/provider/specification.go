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

package provider

import (
	"fmt"

	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline"
)

// Specification is a declarative fluxlog configuration fragment.
// It is intentionally small and merge-friendly.
type Specification struct {
	// MinLevel optionally overrides the minimum logging level.
	MinLevel *level.Level `json:"minLevel,omitempty" yaml:"minLevel,omitempty"`

	// Fields are static fields added to every record (appended on merge).
	Fields []field.Field `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Pipeline optionally replaces the processing pipeline.
	Pipeline *pipeline.Specification `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`

	// Sinks is an ordered list of sink names to write to.
	// Binding/validation happen in runtime against the sink registry.
	Sinks []string `json:"sinks,omitempty" yaml:"sinks,omitempty"`

	// QueueEnabled turns on the bounded async queue + worker goroutine.
	// When false, the pipeline's terminal stage dispatches to
	// runtime/fanout inline, synchronously, with no queue in between.
	QueueEnabled *bool `json:"queueEnabled,omitempty" yaml:"queueEnabled,omitempty"`

	// QueueMaxSize is the channel capacity backing the bounded queue.
	QueueMaxSize int `json:"queueMaxSize,omitempty" yaml:"queueMaxSize,omitempty"`

	// QueueOverflow selects the overflow policy: "drop", "block", or
	// "sample".
	QueueOverflow string `json:"queueOverflow,omitempty" yaml:"queueOverflow,omitempty"`

	// QueueBatchSize caps how many records the worker dequeues per
	// dispatch.
	QueueBatchSize int `json:"queueBatchSize,omitempty" yaml:"queueBatchSize,omitempty"`

	// QueueBatchTimeout bounds how long the worker waits for the first
	// record of a batch before polling again, in milliseconds.
	QueueBatchTimeoutMS int `json:"queueBatchTimeoutMs,omitempty" yaml:"queueBatchTimeoutMs,omitempty"`

	// QueueMaxRetries caps per-sink retry attempts in runtime/fanout
	// after the first try.
	QueueMaxRetries int `json:"queueMaxRetries,omitempty" yaml:"queueMaxRetries,omitempty"`

	// QueueRetryDelay is the initial per-sink retry backoff, in
	// milliseconds; doubles every subsequent attempt up to a 60s cap.
	QueueRetryDelayMS int `json:"queueRetryDelayMs,omitempty" yaml:"queueRetryDelayMs,omitempty"`

	// SamplingRate is the Bernoulli keep-probability applied by the
	// sampler stage, in [0, 1]. Errors always bypass sampling.
	SamplingRate *float64 `json:"samplingRate,omitempty" yaml:"samplingRate,omitempty"`

	// RedactFields lists exact dotted field paths to mask.
	RedactFields []string `json:"redactFields,omitempty" yaml:"redactFields,omitempty"`

	// RedactPatterns lists custom regular expressions (case-insensitive)
	// matched against field keys and string values.
	RedactPatterns []string `json:"redactPatterns,omitempty" yaml:"redactPatterns,omitempty"`

	// RedactReplacement overrides the default "[REDACTED]" mask text.
	RedactReplacement string `json:"redactReplacement,omitempty" yaml:"redactReplacement,omitempty"`

	// RedactLevel gates the pattern redactor stage: below this level,
	// pattern redaction is skipped (fields are still exact-path and PII
	// redacted regardless).
	RedactLevel *level.Level `json:"redactLevel,omitempty" yaml:"redactLevel,omitempty"`

	// EnableAutoRedactPII turns on the builtin PII redactor stage
	// (email/phone/credit card/SSN/IPv4).
	EnableAutoRedactPII *bool `json:"enableAutoRedactPii,omitempty" yaml:"enableAutoRedactPii,omitempty"`

	// CustomPIIPatterns names additional PII patterns on top of the
	// builtin set, as name/regex pairs.
	CustomPIIPatterns map[string]string `json:"customPiiPatterns,omitempty" yaml:"customPiiPatterns,omitempty"`

	// EnableResourceMetrics turns on the resource enricher stage
	// (memory_mb/cpu_percent).
	EnableResourceMetrics *bool `json:"enableResourceMetrics,omitempty" yaml:"enableResourceMetrics,omitempty"`

	// TraceIDHeader names the inbound header an adapter reads an
	// existing trace id from, e.g. "X-Request-Id", before passing it to
	// runtime/context.EnsureTraceID.
	TraceIDHeader string `json:"traceIdHeader,omitempty" yaml:"traceIdHeader,omitempty"`
}

// Validate performs shallow validation of the Specification.
// Runtime builders may enforce stricter rules.
func (s *Specification) Validate() error {
	if s == nil {
		return nil
	}
	if s.MinLevel != nil {
		if err := s.MinLevel.Validate(); err != nil {
			return err
		}
	}
	if s.RedactLevel != nil {
		if err := s.RedactLevel.Validate(); err != nil {
			return err
		}
	}
	if s.SamplingRate != nil && (*s.SamplingRate < 0 || *s.SamplingRate > 1) {
		return fmt.Errorf("fluxlog/provider: samplingRate %v out of range [0,1]", *s.SamplingRate)
	}
	switch s.QueueOverflow {
	case "", "drop", "block", "sample":
	default:
		return fmt.Errorf("fluxlog/provider: unknown queueOverflow %q", s.QueueOverflow)
	}
	// Field-level validation (optional).
	type validator interface{ Validate() error }
	for _, f := range s.Fields {
		if v, ok := any(f).(validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	// Pipeline/Sinks validation is deferred to runtime (registry-aware).
	return nil
}

// Merge applies override over base according to provider precedence.
// Slices are replaced, except Fields which are appended. Nils are skipped.
// The result is a new Specification (input objects are not mutated).
func Merge(base, override *Specification) *Specification {
	switch {
	case base == nil && override == nil:
		return &Specification{}
	case base == nil:
		return cloneSpec(override)
	case override == nil:
		return cloneSpec(base)
	}

	out := cloneSpec(base)

	// MinLevel: last non-nil wins.
	if override.MinLevel != nil {
		lv := *override.MinLevel
		out.MinLevel = &lv
	}

	// Fields: append (preserve earlier, add later).
	if len(override.Fields) > 0 {
		out.Fields = append(cloneFields(out.Fields), override.Fields...)
	}

	// Pipeline: full replace.
	if override.Pipeline != nil {
		out.Pipeline = override.Pipeline
	}

	// Sinks: full replace.
	if len(override.Sinks) > 0 {
		out.Sinks = append([]string(nil), override.Sinks...)
	}

	if override.QueueEnabled != nil {
		v := *override.QueueEnabled
		out.QueueEnabled = &v
	}
	if override.QueueMaxSize != 0 {
		out.QueueMaxSize = override.QueueMaxSize
	}
	if override.QueueOverflow != "" {
		out.QueueOverflow = override.QueueOverflow
	}
	if override.QueueBatchSize != 0 {
		out.QueueBatchSize = override.QueueBatchSize
	}
	if override.QueueBatchTimeoutMS != 0 {
		out.QueueBatchTimeoutMS = override.QueueBatchTimeoutMS
	}
	if override.QueueMaxRetries != 0 {
		out.QueueMaxRetries = override.QueueMaxRetries
	}
	if override.QueueRetryDelayMS != 0 {
		out.QueueRetryDelayMS = override.QueueRetryDelayMS
	}
	if override.SamplingRate != nil {
		v := *override.SamplingRate
		out.SamplingRate = &v
	}
	if len(override.RedactFields) > 0 {
		out.RedactFields = append([]string(nil), override.RedactFields...)
	}
	if len(override.RedactPatterns) > 0 {
		out.RedactPatterns = append([]string(nil), override.RedactPatterns...)
	}
	if override.RedactReplacement != "" {
		out.RedactReplacement = override.RedactReplacement
	}
	if override.RedactLevel != nil {
		v := *override.RedactLevel
		out.RedactLevel = &v
	}
	if override.EnableAutoRedactPII != nil {
		v := *override.EnableAutoRedactPII
		out.EnableAutoRedactPII = &v
	}
	if len(override.CustomPIIPatterns) > 0 {
		merged := make(map[string]string, len(out.CustomPIIPatterns)+len(override.CustomPIIPatterns))
		for k, v := range out.CustomPIIPatterns {
			merged[k] = v
		}
		for k, v := range override.CustomPIIPatterns {
			merged[k] = v
		}
		out.CustomPIIPatterns = merged
	}
	if override.EnableResourceMetrics != nil {
		v := *override.EnableResourceMetrics
		out.EnableResourceMetrics = &v
	}
	if override.TraceIDHeader != "" {
		out.TraceIDHeader = override.TraceIDHeader
	}

	return out
}

// MergeAll merges specs in order (lowest priority first, highest last).
// Nil specs are ignored. Returns a new Specification.
func MergeAll(specs ...*Specification) *Specification {
	var out *Specification
	for _, s := range specs {
		if s == nil {
			continue
		}
		out = Merge(out, s)
	}
	if out == nil {
		out = &Specification{}
	}
	return out
}

// cloneSpec makes a deep copy of the Specification.
func cloneSpec(s *Specification) *Specification {
	if s == nil {
		return nil
	}
	cp := &Specification{}
	if s.MinLevel != nil {
		lv := *s.MinLevel
		cp.MinLevel = &lv
	}
	cp.Fields = cloneFields(s.Fields)
	if s.Pipeline != nil {
		cp.Pipeline = s.Pipeline
	}
	if len(s.Sinks) > 0 {
		cp.Sinks = append([]string(nil), s.Sinks...)
	}

	if s.QueueEnabled != nil {
		v := *s.QueueEnabled
		cp.QueueEnabled = &v
	}
	cp.QueueMaxSize = s.QueueMaxSize
	cp.QueueOverflow = s.QueueOverflow
	cp.QueueBatchSize = s.QueueBatchSize
	cp.QueueBatchTimeoutMS = s.QueueBatchTimeoutMS
	cp.QueueMaxRetries = s.QueueMaxRetries
	cp.QueueRetryDelayMS = s.QueueRetryDelayMS
	if s.SamplingRate != nil {
		v := *s.SamplingRate
		cp.SamplingRate = &v
	}
	if len(s.RedactFields) > 0 {
		cp.RedactFields = append([]string(nil), s.RedactFields...)
	}
	if len(s.RedactPatterns) > 0 {
		cp.RedactPatterns = append([]string(nil), s.RedactPatterns...)
	}
	cp.RedactReplacement = s.RedactReplacement
	if s.RedactLevel != nil {
		v := *s.RedactLevel
		cp.RedactLevel = &v
	}
	if s.EnableAutoRedactPII != nil {
		v := *s.EnableAutoRedactPII
		cp.EnableAutoRedactPII = &v
	}
	if len(s.CustomPIIPatterns) > 0 {
		cp.CustomPIIPatterns = make(map[string]string, len(s.CustomPIIPatterns))
		for k, v := range s.CustomPIIPatterns {
			cp.CustomPIIPatterns[k] = v
		}
	}
	if s.EnableResourceMetrics != nil {
		v := *s.EnableResourceMetrics
		cp.EnableResourceMetrics = &v
	}
	cp.TraceIDHeader = s.TraceIDHeader
	return cp
}

// cloneFields makes a shallow copy of the fields slice.
func cloneFields(in []field.Field) []field.Field {
	if len(in) == 0 {
		return nil
	}
	out := make([]field.Field, len(in))
	copy(out, in)
	return out
}
