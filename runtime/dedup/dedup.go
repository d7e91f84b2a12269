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

// Package dedup implements a Redis-backed Deduplicator pipeline stage:
// it suppresses repeated identical log messages across process
// instances within a fixed window that starts at the first sighting,
// using SET key NX EX as an atomic "have I seen this before" check
// (repeats do not extend the window).
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

const stageName = "dedup"

// KeyFunc derives a dedup key from a record. The default hashes level
// and message text; callers with structured messages (e.g. always
// "request failed" with details in fields) should supply one that also
// folds in the fields that matter.
type KeyFunc func(r record.Record) string

// DefaultKeyFunc hashes the record's level and message.
func DefaultKeyFunc(r record.Record) string {
	h := sha256.New()
	h.Write([]byte(r.Level.String()))
	h.Write([]byte{0})
	h.Write([]byte(r.Message))
	return hex.EncodeToString(h.Sum(nil))
}

// Options configures a Deduplicator stage.
type Options struct {
	// Client is the Redis client used for the SET NX EX check. Required.
	Client *redis.Client

	// Window is how long a key suppresses repeats. Default 10s.
	Window time.Duration

	// KeyPrefix namespaces dedup keys in shared Redis instances.
	// Default "fluxlog:dedup:".
	KeyPrefix string

	// Key derives the dedup key from a record. Defaults to
	// DefaultKeyFunc.
	Key KeyFunc

	// Enabled controls whether the stage is active. Default false:
	// dedup is opt-in, since suppressing "duplicate" log lines can hide
	// real repeated failures unless operators want exactly that.
	Enabled bool
}

type dedupStage struct {
	client  *redis.Client
	window  time.Duration
	prefix  string
	key     KeyFunc
	enabled bool
}

var _ stage.Stage = (*dedupStage)(nil)

// New constructs a Deduplicator stage.
func New(opt Options) stage.Stage {
	if opt.Window <= 0 {
		opt.Window = 10 * time.Second
	}
	if opt.KeyPrefix == "" {
		opt.KeyPrefix = "fluxlog:dedup:"
	}
	if opt.Key == nil {
		opt.Key = DefaultKeyFunc
	}
	return &dedupStage{
		client:  opt.Client,
		window:  opt.Window,
		prefix:  opt.KeyPrefix,
		key:     opt.Key,
		enabled: opt.Enabled && opt.Client != nil,
	}
}

func (s *dedupStage) Name() string  { return stageName }
func (s *dedupStage) Enabled() bool { return s.enabled }

// Process drops r if an identical record (per KeyFunc) was seen within
// Window across any process instance sharing this Redis instance.
// Redis errors fail open: a broken dedup backend must never cause log
// loss, so the record continues through the pipeline unsuppressed.
func (s *dedupStage) Process(ctx context.Context, r record.Record) (record.Record, stage.Decision, error) {
	key := s.prefix + s.key(r)

	ok, err := s.client.SetNX(ctx, key, 1, s.window).Result()
	if err != nil {
		return r, stage.Continue, err
	}
	if !ok {
		return r, stage.Drop, nil
	}
	return r, stage.Continue, nil
}
