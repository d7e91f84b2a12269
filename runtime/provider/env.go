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
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fluxlog/fluxlog/apis/level"
	aprovider "github.com/fluxlog/fluxlog/apis/provider"
)

// DefaultEnvPriority matches apis/provider's documented convention for
// environment overrides (20).
const DefaultEnvPriority = 20

// EnvProvider reads a handful of well-known environment variables,
// prefixed (default "FLUXLOG_"), as the common override surface for
// containerized deployments. It does not attempt to bind every
// Specification field: only the ones operators routinely need to flip
// without editing a config file (level, sampling rate, queue sizing,
// PII redaction toggle).
type EnvProvider struct {
	prefix   string
	priority int
	lookup   func(string) (string, bool)
}

var _ aprovider.Provider = (*EnvProvider)(nil)

// NewEnvProvider constructs an EnvProvider. An empty prefix defaults to
// "FLUXLOG_".
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "FLUXLOG_"
	}
	return &EnvProvider{prefix: prefix, priority: DefaultEnvPriority, lookup: os.LookupEnv}
}

// WithPriority overrides the default priority.
func (p *EnvProvider) WithPriority(priority int) *EnvProvider {
	p.priority = priority
	return p
}

func (p *EnvProvider) Name() string     { return "env:" + p.prefix }
func (p *EnvProvider) Priority() int    { return p.priority }
func (p *EnvProvider) key(name string) string { return p.prefix + name }

// Snapshot reads the environment fresh on every call.
func (p *EnvProvider) Snapshot(ctx context.Context) (*aprovider.Specification, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var spec aprovider.Specification
	var seen []string

	if v, ok := p.lookup(p.key("LEVEL")); ok {
		lv, err := level.ParseLevel(v)
		if err != nil {
			return nil, "", fmt.Errorf("fluxlog/provider: %s: %w", p.key("LEVEL"), err)
		}
		spec.MinLevel = &lv
		seen = append(seen, p.key("LEVEL")+"="+v)
	}
	if v, ok := p.lookup(p.key("SAMPLING_RATE")); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, "", fmt.Errorf("fluxlog/provider: %s: %w", p.key("SAMPLING_RATE"), err)
		}
		spec.SamplingRate = &f
		seen = append(seen, p.key("SAMPLING_RATE")+"="+v)
	}
	if v, ok := p.lookup(p.key("QUEUE_MAX_SIZE")); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "", fmt.Errorf("fluxlog/provider: %s: %w", p.key("QUEUE_MAX_SIZE"), err)
		}
		spec.QueueMaxSize = n
		seen = append(seen, p.key("QUEUE_MAX_SIZE")+"="+v)
	}
	if v, ok := p.lookup(p.key("QUEUE_OVERFLOW")); ok {
		spec.QueueOverflow = v
		seen = append(seen, p.key("QUEUE_OVERFLOW")+"="+v)
	}
	if v, ok := p.lookup(p.key("ENABLE_AUTO_REDACT_PII")); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "", fmt.Errorf("fluxlog/provider: %s: %w", p.key("ENABLE_AUTO_REDACT_PII"), err)
		}
		spec.EnableAutoRedactPII = &b
		seen = append(seen, p.key("ENABLE_AUTO_REDACT_PII")+"="+v)
	}
	if v, ok := p.lookup(p.key("SINKS")); ok && v != "" {
		spec.Sinks = strings.Split(v, ",")
		seen = append(seen, p.key("SINKS")+"="+v)
	}

	if len(seen) == 0 {
		return nil, "", nil
	}
	if err := spec.Validate(); err != nil {
		return nil, "", err
	}
	return &spec, strings.Join(seen, "&"), nil
}

// Watch is unsupported: environment variables don't emit change
// notifications. Callers needing live reload should re-invoke
// Snapshot.
func (p *EnvProvider) Watch(context.Context) (aprovider.Stream, error) {
	return nil, nil
}
