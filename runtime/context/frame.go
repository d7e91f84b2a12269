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

// Package context implements fluxlog's per-request context frame on top
// of stdlib context.Context.
//
// Go has no implicit per-goroutine storage comparable to Python's
// contextvars, so the frame is carried explicitly as an immutable value
// inside context.Context (apis/context's re-architecture note, spec
// section 9): Bind/Clear never mutate a frame in place, they build a new
// one and return a new context.Context wrapping it. This guarantees two
// concurrent requests forked from a shared parent never observe each
// other's bound fields, without any locking.
package context

import (
	"context"
)

type frameKey struct{}

// frame is the immutable value stored in a context.Context. A nil map
// is treated the same as an empty one by all accessors.
type frame struct {
	fields map[string]any
}

func frameFrom(ctx context.Context) *frame {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f != nil {
		return f
	}
	return &frame{}
}

func cloneFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// snapshot is the concrete value handed back by Store.Snapshot and
// accepted by Store.RunWith. It satisfies acontext.Snapshot (an alias
// for any); callers outside this package only ever hold it opaquely.
type snapshot struct {
	fields map[string]any
}
