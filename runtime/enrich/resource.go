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

// Package enrich implements the resource-sampling source used by
// runtime/pipeline's resource enricher stage. Memory comes from
// runtime.ReadMemStats everywhere; CPU percent is a best-effort delta
// read from /proc/self/stat, which only exists on Linux. Elsewhere it
// reports 0 — no third-party process-metrics library appears anywhere
// in the retrieval pack, so this stays on stdlib/proc primitives rather
// than reaching for one that was never grounded.
package enrich

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ResourceSampler matches runtime/pipeline.ResourceSampler; defined
// independently here to keep this package free of a pipeline import.
type ResourceSampler interface {
	Sample() (memoryMB float64, cpuPercent float64)
}

type sampler struct {
	mu        sync.Mutex
	lastUtime uint64 // process CPU ticks (user+sys) at lastAt
	lastAt    time.Time
	clockTick float64
}

// NewResourceSampler builds the default process resource sampler.
func NewResourceSampler() ResourceSampler {
	return &sampler{clockTick: 100} // USER_HZ is 100 on virtually all Linux configs
}

func (s *sampler) Sample() (float64, float64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memMB := float64(m.Alloc) / (1024 * 1024)

	ticks, ok := readProcCPUTicks()
	if !ok {
		return memMB, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.lastAt.IsZero() {
		s.lastUtime = ticks
		s.lastAt = now
		return memMB, 0
	}

	elapsed := now.Sub(s.lastAt).Seconds()
	deltaTicks := float64(ticks - s.lastUtime)
	s.lastUtime = ticks
	s.lastAt = now

	if elapsed <= 0 {
		return memMB, 0
	}
	cpuSeconds := deltaTicks / s.clockTick
	cpuPercent := (cpuSeconds / elapsed) * 100 / float64(runtime.GOMAXPROCS(0))
	return memMB, cpuPercent
}

// readProcCPUTicks parses /proc/self/stat fields 14 (utime) and 15
// (stime), returning their sum. Returns ok=false on any non-Linux
// system or parse failure.
func readProcCPUTicks() (uint64, bool) {
	data, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, false
	}
	// Field 2 (comm) may contain spaces inside parentheses; skip past
	// the closing paren before splitting the remaining fixed fields.
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 >= len(s) {
		return 0, false
	}
	rest := strings.Fields(s[idx+2:])
	// After splitting past "comm)", field index 0 is state (field 3),
	// so utime is field 14 -> index 14-3 = 11, stime is index 12.
	if len(rest) < 13 {
		return 0, false
	}
	utime, err1 := strconv.ParseUint(rest[11], 10, 64)
	stime, err2 := strconv.ParseUint(rest[12], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return utime + stime, true
}
