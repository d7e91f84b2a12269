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

// Package file implements apis/sink.Sink as a rotating local file, using
// a numbered backup scheme (.1, .2, ...) triggered by file size.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	asink "github.com/fluxlog/fluxlog/apis/sink"
)

// DefaultMaxBytes is used when Options.MaxBytes is zero.
const DefaultMaxBytes = 10 * 1024 * 1024 // 10MiB

// Options configures a rotating file sink.
type Options struct {
	// Path is the path to the active log file.
	Path string

	// MaxBytes rotates the active file once it would exceed this size.
	// Defaults to DefaultMaxBytes.
	MaxBytes int64

	// BackupCount caps how many rotated files are kept (file.log.1 ..
	// file.log.N). Older backups beyond this count are deleted. Zero
	// means unlimited.
	BackupCount int

	// Name overrides the reported sink name. Defaults to
	// "file(<base>)".
	Name string

	// FileMode controls permissions for created log files. Zero means
	// 0640.
	FileMode os.FileMode
}

// rotatingFileSink implements asink.Sink and performs on-disk log
// rotation by size, using numbered backups shifted up on each rotation.
//
// Semantics:
//
//   - Write is concurrency-safe (guarded by a mutex), flushes after
//     every write (spec requires bounded crash loss, not best-effort
//     buffering), and rotates first if the incoming entry would push
//     the file past MaxBytes.
//   - Close is idempotent; after Close, Write/Flush return
//     ErrFileClosed.
type rotatingFileSink struct {
	mu   sync.Mutex
	opt  Options
	file *os.File
	size int64
}

var _ asink.Sink = (*rotatingFileSink)(nil)

var (
	// ErrFileClosed indicates the sink has been closed.
	ErrFileClosed = errors.New("sink/file: closed")

	// ErrNoPath indicates an empty file path was provided.
	ErrNoPath = errors.New("sink/file: empty path")
)

// New constructs a rotating file sink, opening (or creating) the active
// log file immediately.
func New(opt Options) (asink.Sink, error) {
	if opt.Path == "" {
		return nil, ErrNoPath
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.BackupCount < 0 {
		opt.BackupCount = 0
	}
	if opt.FileMode == 0 {
		opt.FileMode = 0o640
	}

	s := &rotatingFileSink{opt: opt}
	if err := s.openCurrent(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *rotatingFileSink) Name() string {
	if s.opt.Name != "" {
		return s.opt.Name
	}
	return "file(" + filepath.Base(s.opt.Path) + ")"
}

// Write writes entry to the active file, rotating first if needed, and
// flushes to disk before returning.
func (s *rotatingFileSink) Write(ctx context.Context, entry []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrFileClosed
	}

	if s.size+int64(len(entry)) > s.opt.MaxBytes && s.size > 0 {
		if err := s.rotateLocked(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(entry)
	s.size += int64(n)
	if err != nil {
		return err
	}
	return s.file.Sync()
}

// Flush calls file.Sync explicitly. Write already flushes every entry,
// so this mainly exists to satisfy the Sink contract for callers that
// flush on a timer regardless of per-write behavior.
func (s *rotatingFileSink) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrFileClosed
	}
	return s.file.Sync()
}

// Close closes the active file. Idempotent.
func (s *rotatingFileSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *rotatingFileSink) openCurrent() error {
	dir := filepath.Dir(s.opt.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.opt.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, s.opt.FileMode)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	s.file = f
	s.size = info.Size()
	return nil
}

// rotateLocked shifts numbered backups up by one (file.log.N-1 ->
// file.log.N, dropping anything past BackupCount), moves the active
// file to file.log.1, and opens a fresh active file. Caller must hold
// s.mu.
func (s *rotatingFileSink) rotateLocked() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	if err := shiftBackups(s.opt.Path, s.opt.BackupCount); err != nil {
		return err
	}

	return s.openCurrent()
}

// shiftBackups renames path.N-1 -> path.N for every existing backup,
// from the highest down to 1, then path -> path.1. Backups beyond
// backupCount (if positive) are deleted rather than shifted further.
func shiftBackups(path string, backupCount int) error {
	if backupCount > 0 {
		oldest := fmt.Sprintf("%s.%d", path, backupCount)
		if _, err := os.Stat(oldest); err == nil {
			if err := os.Remove(oldest); err != nil {
				return err
			}
		}
	}

	highest := backupCount
	if highest <= 0 {
		highest = highestExistingBackup(path)
	}

	for n := highest; n >= 1; n-- {
		src := fmt.Sprintf("%s.%d", path, n)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := fmt.Sprintf("%s.%d", path, n+1)
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".1"); err != nil {
			return err
		}
	}
	return nil
}

// highestExistingBackup scans for the highest path.N that currently
// exists, used when BackupCount is unlimited (0) so shiftBackups knows
// how far up the chain to walk.
func highestExistingBackup(path string) int {
	n := 1
	for {
		if _, err := os.Stat(fmt.Sprintf("%s.%d", path, n)); err != nil {
			break
		}
		n++
	}
	return n - 1
}
