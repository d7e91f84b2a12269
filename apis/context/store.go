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

package context

import (
	"context"
	"errors"
)

// ErrInvalidContextValue is returned by Store.Bind when a caller-supplied
// value is not a JSON-compatible scalar or a short list of scalars.
var ErrInvalidContextValue = errors.New("fluxlog/context: invalid context value")

// Snapshot is an opaque handle capturing a context frame at a point in
// time. It is produced by Store.Snapshot and consumed by Store.RunWith
// when a background task is spawned and needs to inherit the parent's
// correlation fields without sharing mutable state with it. Callers
// must treat the concrete type as private to the Store implementation
// that produced it.
type Snapshot any

// Store is the contract for a per-logical-task mapping of correlation
// fields (a "context frame"). Implementations MUST guarantee:
//
//   - no field bound in one task's frame is observable from a concurrent
//     task's frame (no leakage);
//   - a task spawned via Snapshot+RunWith observes exactly the frame
//     captured at Snapshot time, regardless of later mutation in the
//     parent;
//   - O(1) read of any bound field.
//
// Store operates on context.Context rather than ambient/goroutine-local
// storage: Bind and Clear return a new context.Context wrapping an
// updated, immutable frame, so forking a context (e.g. "go
// handle(ctx)") before calling Bind never lets the child see fields
// bound afterwards in the parent, and vice versa.
type Store interface {
	// Bind merges the given fields into the frame carried by ctx and
	// returns a context.Context wrapping the result. Values must be
	// JSON-compatible scalars (string, bool, a numeric type, nil) or a
	// short slice of such scalars; anything else yields
	// ErrInvalidContextValue and the returned context is unchanged
	// (ctx itself, so callers can safely ignore the error and keep
	// using the returned value).
	Bind(ctx context.Context, fields map[string]any) (context.Context, error)

	// Get returns a shallow copy of the frame carried by ctx. Never
	// returns the live map; callers may freely mutate the result.
	Get(ctx context.Context) map[string]any

	// Clear returns a context.Context wrapping an empty frame, leaving
	// ctx and any other context derived from the same ancestor
	// unaffected.
	Clear(ctx context.Context) context.Context

	// Snapshot captures the frame carried by ctx at this instant.
	Snapshot(ctx context.Context) Snapshot

	// RunWith invokes fn with a context.Context wrapping the frame
	// captured by snapshot, derived from context.Background() rather
	// than from the caller's ambient context, so later mutations made
	// by the spawning task are never visible to fn.
	RunWith(snapshot Snapshot, fn func(ctx context.Context))
}
