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

// Package redact implements the three redaction stages that sit between
// enrichment and sampling in the pipeline: an exact field-path redactor,
// a pattern redactor, and a built-in PII auto-redactor. Field redaction
// always runs before the other two, because a caller that explicitly
// names a field to mask is making a stronger, more specific statement
// than a generic pattern match.
package redact

import (
	"context"
	"strings"

	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// Mask is the default replacement value written in place of a redacted
// field, used whenever a caller does not configure redact_replacement.
const Mask = "[REDACTED]"

// pathNode is one segment of a dotted redact path, e.g. "user.password"
// becomes root -> "user" -> "password" (leaf). A value is masked when
// traversal reaches a leaf node; map keys consume one segment each,
// list elements consume none (every element is checked against the
// same node, per spec: "list elements traversed").
type pathNode struct {
	leaf     bool
	children map[string]*pathNode
}

func newPathTree(paths []string) *pathNode {
	root := &pathNode{children: make(map[string]*pathNode)}
	for _, p := range paths {
		if p == "" {
			continue
		}
		cur := root
		segs := strings.Split(p, ".")
		for i, seg := range segs {
			next, ok := cur.children[seg]
			if !ok {
				next = &pathNode{children: make(map[string]*pathNode)}
				cur.children[seg] = next
			}
			if i == len(segs)-1 {
				next.leaf = true
			}
			cur = next
		}
	}
	return root
}

func (n *pathNode) empty() bool { return len(n.children) == 0 }

// fieldStage redacts fields whose dotted path matches one of Paths,
// descending into nested map[string]any values and, for []any values,
// checking every element against the same remaining path (spec: "list
// elements traversed"). "user.password" over
// {"user":{"password":"p","name":"n"}} masks only the password leaf.
type fieldStage struct {
	root        *pathNode
	replacement string
	enabled     bool
}

// NewFieldRedactor builds the dotted-path redaction stage. replacement
// overrides Mask when non-empty.
func NewFieldRedactor(paths []string, replacement string) stage.Stage {
	root := newPathTree(paths)
	if replacement == "" {
		replacement = Mask
	}
	return &fieldStage{root: root, replacement: replacement, enabled: !root.empty()}
}

func (s *fieldStage) Name() string  { return "field_redactor" }
func (s *fieldStage) Enabled() bool { return s.enabled }

func (s *fieldStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if s.root.empty() {
		return r, stage.Continue, nil
	}
	out := make([]field.Field, len(r.Fields))
	for i, f := range r.Fields {
		child, ok := s.root.children[f.Key]
		switch {
		case !ok:
			// no-op
		case child.leaf:
			f.Value = s.replacement
		default:
			f.Value = s.redactValue(child, f.Value)
		}
		out[i] = f
	}
	r.Fields = out
	return r, stage.Continue, nil
}

// redactValue applies node to value, masking any leaf reached by
// descending through map keys (one segment consumed per level) and
// list elements (same node re-applied to every element).
func (s *fieldStage) redactValue(node *pathNode, value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			child, ok := node.children[k]
			switch {
			case !ok:
				out[k] = val
			case child.leaf:
				out[k] = s.replacement
			default:
				out[k] = s.redactValue(child, val)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = s.redactValue(node, val)
		}
		return out
	default:
		return value
	}
}

// patternStage masks fields whose key OR string value matches any of a
// set of case-insensitive regexes. It only runs against records whose
// level is at or above minLevel, so a deployment can keep pattern
// redaction off for cheap debug-level noise and on for anything that
// might actually get shipped.
type patternStage struct {
	patterns    []Pattern
	minLevel    level.Level
	replacement string
	enabled     bool
}

// NewPatternRedactor builds the regex-based redaction stage. minLevel
// gates per record: a record below minLevel passes through unmodified
// even while the stage is enabled. replacement overrides Mask when
// non-empty.
func NewPatternRedactor(patterns []Pattern, enabled bool, minLevel level.Level, replacement string) stage.Stage {
	if replacement == "" {
		replacement = Mask
	}
	return &patternStage{patterns: patterns, minLevel: minLevel, replacement: replacement, enabled: enabled && len(patterns) > 0}
}

func (s *patternStage) Name() string  { return "pattern_redactor" }
func (s *patternStage) Enabled() bool { return s.enabled }

func (s *patternStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if r.Level < s.minLevel {
		return r, stage.Continue, nil
	}
	out := make([]field.Field, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = s.maybeRedact(f)
	}
	r.Fields = out
	return r, stage.Continue, nil
}

func (s *patternStage) maybeRedact(f field.Field) field.Field {
	for _, p := range s.patterns {
		if p.Matches(f.Key) {
			f.Value = s.replacement
			return f
		}
		if str, ok := f.Value.(string); ok && p.Matches(str) {
			f.Value = s.replacement
			return f
		}
	}
	return f
}
