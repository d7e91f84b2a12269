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
	"fmt"
	"sync"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

// DynamicStages is a single stage.Stage that fans out to a mutable,
// named list of sub-stages. It exists so a caller can register a
// custom enricher after a Pipeline has already been built: Fixed's
// stage list is baked in at New() time, but a DynamicStages instance
// placed in Fixed.CustomEnrichers keeps accepting Append/Remove calls
// for the life of the Pipeline.
type DynamicStages struct {
	mu      sync.RWMutex
	entries []namedStage
}

type namedStage struct {
	name  string
	stage stage.Stage
}

// NewDynamicStages builds an empty DynamicStages.
func NewDynamicStages() *DynamicStages {
	return &DynamicStages{}
}

// Append registers s under name, run after every previously registered
// entry. It rejects a duplicate name so the same enricher can't be
// bound twice by accident.
func (d *DynamicStages) Append(name string, s stage.Stage) error {
	if name == "" {
		return fmt.Errorf("fluxlog/pipeline: enricher name must not be empty")
	}
	if s == nil {
		return fmt.Errorf("fluxlog/pipeline: enricher %q is nil", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		if e.name == name {
			return fmt.Errorf("fluxlog/pipeline: enricher %q already registered", name)
		}
	}
	d.entries = append(d.entries, namedStage{name: name, stage: s})
	return nil
}

// Remove unregisters the enricher bound to name. It is a no-op if name
// was never registered.
func (d *DynamicStages) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.entries {
		if e.name == name {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// Names returns the currently registered enricher names, in
// registration order.
func (d *DynamicStages) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.name
	}
	return out
}

func (d *DynamicStages) Name() string  { return "custom_enrichers" }
func (d *DynamicStages) Enabled() bool { return true }

// Process runs every registered sub-stage in order. A sub-stage error
// is returned immediately to the caller (the Pipeline reports it via
// OnStageError and continues with the record unmodified); a Drop
// decision from any sub-stage stops the remaining sub-stages too.
func (d *DynamicStages) Process(ctx context.Context, r record.Record) (record.Record, stage.Decision, error) {
	d.mu.RLock()
	entries := make([]namedStage, len(d.entries))
	copy(entries, d.entries)
	d.mu.RUnlock()

	for _, e := range entries {
		if !e.stage.Enabled() {
			continue
		}
		next, dec, err := e.stage.Process(ctx, r)
		if err != nil {
			return r, stage.Continue, fmt.Errorf("enricher %q: %w", e.name, err)
		}
		r = next
		if dec == stage.Drop {
			return r, stage.Drop, nil
		}
	}
	return r, stage.Continue, nil
}
