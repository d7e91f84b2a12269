package file

import (
	"context"
	"path/filepath"
	"testing"

	asink "github.com/fluxlog/fluxlog/apis/sink"
	"github.com/fluxlog/fluxlog/apis/sink/policy"
	"github.com/fluxlog/fluxlog/runtime/registry"
)

func TestBuild_AppliesRotationFromSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	s, err := build(context.Background(), registry.Key{Kind: "sink", Name: "file"}, asink.Specification{
		Params:   map[string]string{"path": path},
		Rotation: &policy.Rotation{MaxSizeMB: 1, MaxBackups: 2},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.Close(context.Background())

	rf, ok := s.(*rotatingFileSink)
	if !ok {
		t.Fatalf("unexpected sink type %T", s)
	}
	if rf.opt.MaxBytes != 1024*1024 {
		t.Fatalf("MaxBytes = %d, want 1MiB", rf.opt.MaxBytes)
	}
	if rf.opt.BackupCount != 2 {
		t.Fatalf("BackupCount = %d, want 2", rf.opt.BackupCount)
	}
}

func TestBuild_RequiresPath(t *testing.T) {
	_, err := build(context.Background(), registry.Key{Kind: "sink", Name: "file"}, asink.Specification{})
	if err != ErrNoPath {
		t.Fatalf("err = %v, want ErrNoPath", err)
	}
}
