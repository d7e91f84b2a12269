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

package sink

import (
	"context"

	asink "github.com/fluxlog/fluxlog/apis/sink"
	"github.com/fluxlog/fluxlog/runtime/registry"
)

// Registry is a global sink registry, case-insensitive for convenience.
var Registry = registry.New[asink.Sink, asink.Specification](registry.WithCaseFoldLower())

// Register registers a sink builder under kind. Typical usage from
// package init(): Register("stdout", build). The instance name a built
// sink should answer to travels in Specification.Name, not in the
// registry key, since one kind is commonly instantiated more than once
// (e.g. two file sinks writing to different paths).
func Register(kind string, b registry.Builder[asink.Sink, asink.Specification]) {
	registry.MustRegister(Registry, registry.Key{Kind: "sink", Name: kind}, b)
}

// Build constructs a sink instance from the registered builder for
// kind, stamping name onto spec before invoking it.
func Build(ctx context.Context, kind, name string, spec asink.Specification) (asink.Sink, error) {
	spec.Name = name
	return Registry.Build(ctx, registry.Key{Kind: "sink", Name: kind}, spec)
}

// Seal prevents further registrations (optional, once all init() done).
func Seal() { Registry.Seal() }
