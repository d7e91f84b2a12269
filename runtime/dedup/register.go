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

package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	pipelineregistry "github.com/fluxlog/fluxlog/runtime/pipeline"
)

func init() {
	pipelineregistry.RegisterPlugin("dedup", build)
}

// Config is the expected shape of plugin.Specification.Config for the
// "dedup" kind.
type Config struct {
	Addr      string
	Window    time.Duration
	KeyPrefix string
}

func build(_ context.Context, spec plugin.Specification) (stage.Stage, error) {
	cfg, err := toConfig(spec.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return New(Options{Enabled: false}), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	enabled := spec.Enabled == nil || *spec.Enabled
	return New(Options{Client: client, Window: cfg.Window, KeyPrefix: cfg.KeyPrefix, Enabled: enabled}), nil
}

func toConfig(raw any) (Config, error) {
	switch v := raw.(type) {
	case nil:
		return Config{}, nil
	case Config:
		return v, nil
	case *Config:
		return *v, nil
	case map[string]any:
		var cfg Config
		if addr, ok := v["addr"].(string); ok {
			cfg.Addr = addr
		}
		if prefix, ok := v["key_prefix"].(string); ok {
			cfg.KeyPrefix = prefix
		}
		switch w := v["window_seconds"].(type) {
		case int:
			cfg.Window = time.Duration(w) * time.Second
		case float64:
			cfg.Window = time.Duration(w * float64(time.Second))
		}
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("dedup: unsupported config type %T", raw)
	}
}
