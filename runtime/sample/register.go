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

package sample

import (
	"context"
	"fmt"

	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	pipelineregistry "github.com/fluxlog/fluxlog/runtime/pipeline"
)

func init() {
	pipelineregistry.RegisterPlugin("rate_limit", build)
}

// RateLimitConfig is the expected shape of plugin.Specification.Config
// for the "rate_limit" kind.
type RateLimitConfig struct {
	RatePerSecond float64
	Burst         int
}

func build(_ context.Context, spec plugin.Specification) (stage.Stage, error) {
	cfg, err := toRateLimitConfig(spec.Config)
	if err != nil {
		return nil, err
	}
	return NewRateLimiter(cfg.RatePerSecond, cfg.Burst), nil
}

func toRateLimitConfig(raw any) (RateLimitConfig, error) {
	switch v := raw.(type) {
	case nil:
		return RateLimitConfig{}, nil
	case RateLimitConfig:
		return v, nil
	case *RateLimitConfig:
		return *v, nil
	case map[string]any:
		var cfg RateLimitConfig
		if r, ok := v["rate_per_second"].(float64); ok {
			cfg.RatePerSecond = r
		}
		switch b := v["burst"].(type) {
		case int:
			cfg.Burst = b
		case float64:
			cfg.Burst = int(b)
		}
		return cfg, nil
	default:
		return RateLimitConfig{}, fmt.Errorf("sample: unsupported rate_limit config type %T", raw)
	}
}
