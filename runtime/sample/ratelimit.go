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

	"golang.org/x/time/rate"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// rateLimiterStage drops records once a token-bucket limiter is
// exhausted. It runs before the sampler, so a caller that combines both
// gets hard-capped throughput first and probabilistic thinning second.
type rateLimiterStage struct {
	limiter *rate.Limiter
	enabled bool
}

// NewRateLimiter builds an optional rate-limiting stage allowing up to
// ratePerSecond records/sec with a burst allowance of burst. Disabled
// (Enabled() == false) when ratePerSecond <= 0.
func NewRateLimiter(ratePerSecond float64, burst int) stage.Stage {
	if ratePerSecond <= 0 {
		return &rateLimiterStage{enabled: false}
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiterStage{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		enabled: true,
	}
}

func (s *rateLimiterStage) Name() string  { return "rate_limiter" }
func (s *rateLimiterStage) Enabled() bool { return s.enabled }

func (s *rateLimiterStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if s.limiter == nil || s.limiter.Allow() {
		return r, stage.Continue, nil
	}
	return r, stage.Drop, nil
}
