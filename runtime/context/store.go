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
	"fmt"

	"github.com/google/uuid"

	acontext "github.com/fluxlog/fluxlog/apis/context"
)

// store is the default, zero-value-usable acontext.Store implementation.
type store struct{}

// New returns the default context store. There is no per-instance state;
// all state lives in the context.Context values the store operates on.
func New() acontext.Store {
	return store{}
}

func (store) Bind(ctx context.Context, fields map[string]any) (context.Context, error) {
	if len(fields) == 0 {
		return ctx, nil
	}
	for k, v := range fields {
		if !isBindable(v) {
			return ctx, fmt.Errorf("%w: field %q has type %T", acontext.ErrInvalidContextValue, k, v)
		}
	}

	parent := frameFrom(ctx)
	next := &frame{fields: cloneFields(parent.fields)}
	for k, v := range fields {
		next.fields[k] = v
	}
	return context.WithValue(ctx, frameKey{}, next), nil
}

func (store) Get(ctx context.Context) map[string]any {
	return cloneFields(frameFrom(ctx).fields)
}

func (store) Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, frameKey{}, &frame{})
}

func (store) Snapshot(ctx context.Context) acontext.Snapshot {
	return snapshot{fields: cloneFields(frameFrom(ctx).fields)}
}

func (store) RunWith(snap acontext.Snapshot, fn func(ctx context.Context)) {
	s, ok := snap.(snapshot)
	if !ok {
		fn(context.Background())
		return
	}
	fn(context.WithValue(context.Background(), frameKey{}, &frame{fields: cloneFields(s.fields)}))
}

// isBindable reports whether v is a JSON-compatible scalar, or a short
// slice of such scalars. nil is bindable (it is how a caller explicitly
// unsets a field observed by an enricher downstream).
func isBindable(v any) bool {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case []string:
		return len(x) <= maxBindSliceLen
	case []any:
		if len(x) > maxBindSliceLen {
			return false
		}
		for _, elem := range x {
			switch elem.(type) {
			case nil, string, bool,
				int, int8, int16, int32, int64,
				uint, uint8, uint16, uint32, uint64,
				float32, float64:
				continue
			default:
				return false
			}
		}
		return true
	default:
		return false
	}
}

// maxBindSliceLen bounds how large a slice-valued field may be, so a
// careless caller can't balloon every subsequent log line in the frame.
const maxBindSliceLen = 32

// EnsureTraceID returns a context.Context whose frame has a non-empty
// trace_id field. If incoming (typically read from an inbound request
// header) is non-empty, it is bound verbatim so the trace correlates
// with an upstream caller. Otherwise an existing non-empty trace_id in
// ctx is kept, and only if there is none is a new UUIDv7 minted: UUIDv7
// is time-ordered, so trace ids sort naturally alongside log timestamps.
func EnsureTraceID(ctx context.Context, s acontext.Store, incoming string) context.Context {
	if incoming != "" {
		next, err := s.Bind(ctx, map[string]any{"trace_id": incoming})
		if err != nil {
			return ctx
		}
		return next
	}
	if existing, ok := frameFrom(ctx).fields["trace_id"]; ok {
		if str, ok := existing.(string); ok && str != "" {
			return ctx
		}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return ctx
	}
	next, err := s.Bind(ctx, map[string]any{"trace_id": id.String()})
	if err != nil {
		return ctx
	}
	return next
}
