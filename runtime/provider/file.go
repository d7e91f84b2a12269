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

// Package provider supplies concrete apis/provider.Provider
// implementations: a YAML/JSON config file and process environment
// variables.
package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	aprovider "github.com/fluxlog/fluxlog/apis/provider"
)

// FileProvider loads a Specification from a YAML (or JSON, which is a
// YAML subset) file. It does not watch for changes: Watch returns
// (nil, nil) per apis/provider.Provider's contract, so callers fall
// back to polling Snapshot.
type FileProvider struct {
	path     string
	priority int
}

var _ aprovider.Provider = (*FileProvider)(nil)

// DefaultFilePriority matches apis/provider's documented convention for
// file-based config (10).
const DefaultFilePriority = 10

// NewFileProvider constructs a FileProvider for path, with
// DefaultFilePriority. Use WithPriority to override.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path, priority: DefaultFilePriority}
}

// WithPriority overrides the default priority.
func (p *FileProvider) WithPriority(priority int) *FileProvider {
	p.priority = priority
	return p
}

// Name returns a stable identifier including the file path.
func (p *FileProvider) Name() string { return "file:" + p.path }

// Priority returns the provider's override priority.
func (p *FileProvider) Priority() int { return p.priority }

// Snapshot reads and parses the file fresh on every call. A missing
// file is not an error: it yields a nil Specification, meaning "no
// data from this provider", consistent with an optional config file.
func (p *FileProvider) Snapshot(ctx context.Context) (*aprovider.Specification, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("fluxlog/provider: read %s: %w", p.path, err)
	}

	var spec aprovider.Specification
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, "", fmt.Errorf("fluxlog/provider: parse %s: %w", p.path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, "", fmt.Errorf("fluxlog/provider: invalid %s: %w", p.path, err)
	}

	return &spec, contentVersion(data), nil
}

// Watch is unsupported: FileProvider does not poll or use fsnotify.
// Callers needing live reload should call Snapshot on their own
// interval.
func (p *FileProvider) Watch(context.Context) (aprovider.Stream, error) {
	return nil, nil
}

// contentVersion derives a stable version string from file content so
// Snapshot callers can detect "nothing changed" without needing a
// filesystem mtime (which isn't reliable across all volume types).
func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
