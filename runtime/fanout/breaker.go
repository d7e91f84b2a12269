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

package fanout

import (
	"sync"
	"time"
)

// breakerState is one of closed/open/half_open.
type breakerState uint8

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a per-sink circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is how many consecutive failures in the closed
	// state trip the breaker open. Default 5.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before it
	// moves to half_open and lets attempts through again. Default 60s.
	RecoveryTimeout time.Duration
	// SuccessThreshold is how many consecutive half-open successes
	// close the breaker again. Default 3.
	SuccessThreshold int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 60 * time.Second
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 3
	}
	return c
}

// breaker is a small per-sink circuit breaker: closed -> open on
// FailureThreshold consecutive failures; open -> half_open after
// RecoveryTimeout; half_open -> closed on SuccessThreshold consecutive
// successes, or back to open on any failure.
type breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       breakerState
	failures    int
	successes   int
	openedAt    time.Time
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg.withDefaults(), state: stateClosed}
}

// Allow reports whether a dispatch attempt should proceed right now.
// Calling Allow on an open breaker past RecoveryTimeout transitions it
// to half_open; a half_open breaker allows every attempt through until
// SuccessThreshold successes close it or a failure reopens it.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed, stateHalfOpen:
		return true
	case stateOpen:
		if time.Since(b.openedAt) >= b.cfg.RecoveryTimeout {
			b.state = stateHalfOpen
			b.successes = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess reports a successful delivery.
func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = stateClosed
			b.failures = 0
			b.successes = 0
		}
	case stateClosed:
		b.failures = 0
	}
}

// RecordFailure reports a failed delivery.
func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = stateOpen
			b.openedAt = time.Now()
		}
	case stateHalfOpen:
		b.state = stateOpen
		b.openedAt = time.Now()
		b.successes = 0
	}
}

// State returns the current state, for health reporting.
func (b *breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
