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

// Package sample implements the pipeline's probabilistic sampler stage
// and an optional token-bucket rate limiter stage.
package sample

import (
	"context"
	"math/rand/v2"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// samplerStage keeps a record with probability Rate. A record carrying
// a non-nil Err always bypasses sampling: dropping error events to hit
// a volume target is rarely what an operator wants.
type samplerStage struct {
	rate    float64
	enabled bool
}

// NewSampler builds the Bernoulli sampling stage. rate is clamped to
// [0, 1]; a rate of 1 (the default) disables the stage.
func NewSampler(rate float64) stage.Stage {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &samplerStage{rate: rate, enabled: rate < 1}
}

func (s *samplerStage) Name() string  { return "sampler" }
func (s *samplerStage) Enabled() bool { return s.enabled }

func (s *samplerStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if r.Err != nil {
		return r, stage.Continue, nil
	}
	if rand.Float64() < s.rate {
		return r, stage.Continue, nil
	}
	return r, stage.Drop, nil
}
