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

package redact

import (
	"context"

	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// BuiltinPIIPatterns are applied unconditionally whenever the PII
// auto-redactor is enabled. They favor precision over recall: a pattern
// that fires on a non-PII value is worse than one that occasionally
// misses, since this stage runs on every field of every record.
var BuiltinPIIPatterns = []Pattern{
	MustCompilePattern("email", `\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`),
	MustCompilePattern("phone", `\b(\+?\d{1,2}[ .\-]?)?\(?\d{3}\)?[ .\-]?\d{3}[ .\-]?\d{4}\b`),
	MustCompilePattern("credit_card", `\b(?:\d[ \-]?){13,16}\b`),
	MustCompilePattern("ssn", `\b\d{3}-\d{2}-\d{4}\b`),
	MustCompilePattern("ipv4", `\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`),
}

// piiStage masks any string field value matching a builtin or custom PII
// pattern. It runs after fieldStage and patternStage (spec-mandated
// precedence: an explicit field-path or custom pattern match always
// takes priority and this stage has nothing left to inspect for those
// fields, since the value is already Mask).
type piiStage struct {
	patterns    []Pattern
	replacement string
	enabled     bool
}

// NewPIIRedactor builds the auto-PII redaction stage. custom patterns
// are checked in addition to BuiltinPIIPatterns. replacement overrides
// Mask when non-empty.
func NewPIIRedactor(custom []Pattern, enabled bool, replacement string) stage.Stage {
	patterns := make([]Pattern, 0, len(BuiltinPIIPatterns)+len(custom))
	patterns = append(patterns, BuiltinPIIPatterns...)
	patterns = append(patterns, custom...)
	if replacement == "" {
		replacement = Mask
	}
	return &piiStage{patterns: patterns, replacement: replacement, enabled: enabled}
}

func (s *piiStage) Name() string  { return "pii_redactor" }
func (s *piiStage) Enabled() bool { return s.enabled }

func (s *piiStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	out := make([]field.Field, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = s.maybeRedact(f)
	}
	r.Fields = out
	return r, stage.Continue, nil
}

func (s *piiStage) maybeRedact(f field.Field) field.Field {
	str, ok := f.Value.(string)
	if !ok || str == s.replacement {
		return f
	}
	for _, p := range s.patterns {
		if p.Matches(str) {
			f.Value = s.replacement
			return f
		}
	}
	return f
}
