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

	acontext "github.com/fluxlog/fluxlog/apis/context"
)

// storeExtractor adapts a Store's free-form bound frame to the fixed-shape
// acontext.Pack the pipeline's context enricher consumes. Only the
// well-known correlation keys are projected; anything else a caller binds
// stays out of Pack but is still visible via Store.Get to application code
// that reads the frame directly.
type storeExtractor struct {
	store acontext.Store
}

// NewStoreExtractor wraps s as an acontext.Extractor, so a Store's bound
// frame (see BindContext) flows into the record produced for every
// subsequent log call on the same context.Context. Compose it after a
// Static base pack with acontext.Chain so service/env/node identity
// survives even on a context with no bound frame:
//
//	extractor := acontext.Chain(acontext.Static(basePack), NewStoreExtractor(store))
func NewStoreExtractor(s acontext.Store) acontext.Extractor {
	return storeExtractor{store: s}
}

func (e storeExtractor) Extract(ctx context.Context) acontext.Pack {
	frame := e.store.Get(ctx)
	if len(frame) == 0 {
		return acontext.Pack{}
	}

	var p acontext.Pack
	p.TraceID = stringField(frame, "trace_id")
	p.SpanID = stringField(frame, "span_id")
	p.CorrelationID = stringField(frame, "correlation_id")
	p.Service = stringField(frame, "service")
	p.Version = stringField(frame, "version")
	p.Env = stringField(frame, "env")
	p.NodeID = stringField(frame, "node_id")
	p.Instance = stringField(frame, "instance")
	p.Region = stringField(frame, "region")
	p.Component = stringField(frame, "component")
	p.Subsystem = stringField(frame, "subsystem")
	p.Operation = stringField(frame, "operation")
	return p
}

func stringField(frame map[string]any, key string) string {
	v, ok := frame[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
