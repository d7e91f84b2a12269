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

package pipeline

import (
	"context"

	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/runtime/registry"
)

// PluginRegistry is the process-wide plugin registry, keyed by
// plugin.Specification.Kind ("rate_limit", "dedup", and any other kind
// registered via RegisterPlugin).
var PluginRegistry = registry.New[stage.Stage, plugin.Specification](registry.WithCaseFoldLower())

// RegisterPlugin registers a plugin builder under kind. Typical usage
// is from a package's init(): RegisterPlugin("rate_limit", build).
func RegisterPlugin(kind string, b func(ctx context.Context, spec plugin.Specification) (stage.Stage, error)) {
	wrapped := func(ctx context.Context, _ registry.Key, spec plugin.Specification) (stage.Stage, error) {
		return b(ctx, spec)
	}
	registry.MustRegister(PluginRegistry, registry.Key{Kind: "plugin", Name: kind}, registry.Builder[stage.Stage, plugin.Specification](wrapped))
}

// BuildPlugin constructs a stage from the builder registered for
// spec.Kind.
func BuildPlugin(ctx context.Context, spec plugin.Specification) (stage.Stage, error) {
	return PluginRegistry.Build(ctx, registry.Key{Kind: "plugin", Name: spec.Kind}, spec)
}
