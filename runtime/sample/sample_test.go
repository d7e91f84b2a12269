package sample

import (
	"context"
	"errors"
	"testing"

	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/record"
)

func TestSampler_RateOneKeepsEverything(t *testing.T) {
	s := NewSampler(1)
	if s.Enabled() {
		t.Fatalf("Enabled() = true for rate=1, want disabled")
	}
	_, dec, err := s.Process(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Continue {
		t.Fatalf("decision = %v, want Continue", dec)
	}
}

func TestSampler_RateZeroDropsNonErrors(t *testing.T) {
	s := NewSampler(0)
	for i := 0; i < 20; i++ {
		_, dec, err := s.Process(context.Background(), record.Record{})
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if dec != stage.Drop {
			t.Fatalf("decision = %v, want Drop at rate 0", dec)
		}
	}
}

func TestSampler_ErrorsBypassSampling(t *testing.T) {
	s := NewSampler(0)
	_, dec, err := s.Process(context.Background(), record.Record{Err: errors.New("boom")})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dec != stage.Continue {
		t.Fatalf("decision = %v, want Continue for an error record even at rate 0", dec)
	}
}

func TestRateLimiter_DisabledWhenNonPositive(t *testing.T) {
	s := NewRateLimiter(0, 0)
	if s.Enabled() {
		t.Fatalf("Enabled() = true for ratePerSecond<=0")
	}
	_, dec, _ := s.Process(context.Background(), record.Record{})
	if dec != stage.Continue {
		t.Fatalf("disabled rate limiter should never drop, got %v", dec)
	}
}

func TestRateLimiter_DropsOnceBurstExhausted(t *testing.T) {
	s := NewRateLimiter(1, 1)

	_, dec, _ := s.Process(context.Background(), record.Record{})
	if dec != stage.Continue {
		t.Fatalf("first call decision = %v, want Continue", dec)
	}
	_, dec, _ = s.Process(context.Background(), record.Record{})
	if dec != stage.Drop {
		t.Fatalf("second immediate call decision = %v, want Drop", dec)
	}
}
