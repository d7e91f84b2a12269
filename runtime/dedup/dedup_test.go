package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

func TestDefaultKeyFunc_SameMessageSameKey(t *testing.T) {
	a := record.Record{Level: level.Error, Message: "disk full"}
	b := record.Record{Level: level.Error, Message: "disk full"}
	c := record.Record{Level: level.Warn, Message: "disk full"}

	if DefaultKeyFunc(a) != DefaultKeyFunc(b) {
		t.Fatalf("identical records produced different keys")
	}
	if DefaultKeyFunc(a) == DefaultKeyFunc(c) {
		t.Fatalf("records differing only by level produced the same key")
	}
}

func TestNew_DisabledWithoutClient(t *testing.T) {
	s := New(Options{Enabled: true})
	if s.Enabled() {
		t.Fatalf("stage should be disabled without a Redis client regardless of Enabled: true")
	}
}

func TestDedupStage_FailsOpenOnRedisError(t *testing.T) {
	// Point at a port nothing is listening on: SetNX will fail fast
	// with a connection error, and Process must fail open (Continue)
	// rather than drop the record.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	})
	defer client.Close()

	s := New(Options{Client: client, Enabled: true, Window: time.Second})
	if !s.Enabled() {
		t.Fatalf("expected stage to be enabled with a client configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, dec, err := s.Process(ctx, record.Record{Level: level.Info, Message: "x"})
	if err == nil {
		t.Fatalf("expected Redis connection error")
	}
	if dec != stage.Continue {
		t.Fatalf("decision = %v, want Continue (fail open)", dec)
	}
}

func TestNew_NameIsStable(t *testing.T) {
	s := New(Options{})
	if s.Name() != "dedup" {
		t.Fatalf("Name = %q, want dedup", s.Name())
	}
}
