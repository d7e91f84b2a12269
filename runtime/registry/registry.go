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

// Package registry provides a small generic (Kind, Name) -> Builder
// table used by runtime/sink and runtime/pipeline to let concrete
// implementations self-register from an init() without the call site
// needing to import every implementation package directly.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Key identifies a registered builder by its kind (e.g. "sink", "enricher")
// and its name (e.g. "stdout", "file", "loki").
type Key struct {
	Kind string
	Name string
}

func (k Key) String() string { return k.Kind + "/" + k.Name }

func (k Key) foldLower() Key {
	return Key{Kind: strings.ToLower(k.Kind), Name: strings.ToLower(k.Name)}
}

// Builder constructs a T from a Spec. name is carried separately from
// Spec so implementations that embed their own Name field don't have to
// duplicate it; key.Name is always the authoritative identifier.
type Builder[T any, Spec any] func(ctx context.Context, key Key, spec Spec) (T, error)

// Registry is a (Kind, Name) -> Builder table for a given product type
// T built from configuration type Spec.
type Registry[T any, Spec any] struct {
	mu       sync.RWMutex
	builders map[Key]Builder[T, Spec]
	foldCase bool
	sealed   bool
}

// Option configures a Registry at construction time.
type Option func(*registryOptions)

type registryOptions struct {
	foldCase bool
}

// WithCaseFoldLower makes Kind/Name lookups case-insensitive by folding
// both to lowercase on register and on build.
func WithCaseFoldLower() Option {
	return func(o *registryOptions) { o.foldCase = true }
}

// New constructs an empty Registry.
func New[T any, Spec any](opts ...Option) *Registry[T, Spec] {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T, Spec]{
		builders: make(map[Key]Builder[T, Spec]),
		foldCase: o.foldCase,
	}
}

func (r *Registry[T, Spec]) normalize(key Key) Key {
	if r.foldCase {
		return key.foldLower()
	}
	return key
}

// Register registers b under key. It returns an error if the registry
// is sealed or key is already registered.
func (r *Registry[T, Spec]) Register(key Key, b Builder[T, Spec]) error {
	key = r.normalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry: sealed, cannot register %s", key)
	}
	if _, exists := r.builders[key]; exists {
		return fmt.Errorf("registry: duplicate registration for %s", key)
	}
	r.builders[key] = b
	return nil
}

// MustRegister registers b under key, panicking on failure. Intended for
// use from package init(), where a duplicate or post-Seal registration
// is a programming error, not a runtime condition to recover from.
func MustRegister[T any, Spec any](r *Registry[T, Spec], key Key, b Builder[T, Spec]) {
	if err := r.Register(key, b); err != nil {
		panic(err)
	}
}

// Build looks up the builder registered for key and invokes it with spec.
func (r *Registry[T, Spec]) Build(ctx context.Context, key Key, spec Spec) (T, error) {
	lookup := r.normalize(key)

	r.mu.RLock()
	b, ok := r.builders[lookup]
	r.mu.RUnlock()

	var zero T
	if !ok {
		return zero, fmt.Errorf("registry: no builder registered for %s", key)
	}
	return b(ctx, key, spec)
}

// Seal prevents further registrations. Call once all init()-time
// registrations are expected to have run.
func (r *Registry[T, Spec]) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry[T, Spec]) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Keys returns every currently registered key, for diagnostics.
func (r *Registry[T, Spec]) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Key, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	return out
}
