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
	"fmt"
	"regexp"
)

// Pattern wraps a compiled, case-insensitive regular expression.
type Pattern struct {
	name string
	re   *regexp.Regexp
}

// CompilePattern compiles expr as a case-insensitive regex. name is used
// only for diagnostics (e.g. which custom pattern masked a field).
func CompilePattern(name, expr string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("fluxlog/redact: invalid pattern %q: %w", name, err)
	}
	return Pattern{name: name, re: re}, nil
}

// MustCompilePattern is CompilePattern but panics on error; intended for
// the builtin PII pattern table, whose expressions are fixed at compile
// time and therefore always valid.
func MustCompilePattern(name, expr string) Pattern {
	p, err := CompilePattern(name, expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the pattern's diagnostic name.
func (p Pattern) Name() string { return p.name }

// Matches reports whether s matches the pattern.
func (p Pattern) Matches(s string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(s)
}
