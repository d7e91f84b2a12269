package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	"github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
	runqueue "github.com/fluxlog/fluxlog/runtime/queue"
)

type stubStage struct {
	name    string
	dec     stage.Decision
	err     error
	panics  bool
	enabled bool
	mutate  func(record.Record) record.Record
}

func (s stubStage) Name() string  { return s.name }
func (s stubStage) Enabled() bool { return s.enabled }

func (s stubStage) Process(_ context.Context, r record.Record) (record.Record, stage.Decision, error) {
	if s.panics {
		panic("boom")
	}
	if s.mutate != nil {
		r = s.mutate(r)
	}
	return r, s.dec, s.err
}

type stubEncoder struct{}

func (stubEncoder) Encode(r *record.Record, w io.Writer) error {
	_, err := w.Write([]byte(r.Message))
	return err
}
func (stubEncoder) ContentType() string { return "text/plain" }
func (stubEncoder) Name() string        { return "stub" }

func TestPipeline_DropsAtLevelFilter(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	p := New(Fixed{
		LevelFilter: NewLevelFilter(level.Error),
		Renderer:    stubEncoder{},
		Queue:       q,
	})

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now(), Message: "x"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if m := q.Metrics(); m.Enqueued != 0 {
		t.Fatalf("Enqueued = %d, want 0 (record should have been dropped)", m.Enqueued)
	}
}

func TestPipeline_EnqueuesRenderedRecord(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	p := New(Fixed{
		LevelFilter: NewLevelFilter(level.Trace),
		Renderer:    stubEncoder{},
		Queue:       q,
	})

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now(), Message: "hello"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	batch := q.Dequeue(context.Background(), 1)
	if len(batch) != 1 || batch[0].Message != "hello" {
		t.Fatalf("Dequeue = %+v, want one record with message hello", batch)
	}
}

func TestPipeline_StageErrorDoesNotAbortRecord(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	var reported string
	p := New(Fixed{
		LevelFilter: NewLevelFilter(level.Trace),
		CustomEnrichers: []stage.Stage{
			stubStage{name: "flaky", enabled: true, err: errors.New("boom")},
		},
		Renderer: stubEncoder{},
		Queue:    q,
		OnStageError: func(stageName string, err error) {
			reported = stageName
		},
	})

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now(), Message: "hello"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if reported != "flaky" {
		t.Fatalf("OnStageError was not invoked for the flaky stage")
	}
	if m := q.Metrics(); m.Enqueued != 1 {
		t.Fatalf("Enqueued = %d, want 1 despite the stage error", m.Enqueued)
	}
}

func TestPipeline_StagePanicIsContained(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	p := New(Fixed{
		LevelFilter: NewLevelFilter(level.Trace),
		CustomEnrichers: []stage.Stage{
			stubStage{name: "panicky", enabled: true, panics: true},
		},
		Renderer: stubEncoder{},
		Queue:    q,
	})

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now(), Message: "hello"}); err != nil {
		t.Fatalf("Emit returned error despite panic containment: %v", err)
	}
	if m := q.Metrics(); m.Enqueued != 1 {
		t.Fatalf("Enqueued = %d, want 1 despite the stage panic", m.Enqueued)
	}
}

func TestPipeline_DisabledStageIsSkipped(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	p := New(Fixed{
		LevelFilter: NewLevelFilter(level.Trace),
		CustomEnrichers: []stage.Stage{
			stubStage{name: "disabled", enabled: false, dec: stage.Drop},
		},
		Renderer: stubEncoder{},
		Queue:    q,
	})

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now(), Message: "hello"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if m := q.Metrics(); m.Enqueued != 1 {
		t.Fatalf("Enqueued = %d, want 1 (disabled stage must not drop)", m.Enqueued)
	}
}

func TestPipeline_ClosedPipelineIsNoop(t *testing.T) {
	q := runqueue.New(runqueue.Options{Capacity: 4})
	p := New(Fixed{LevelFilter: NewLevelFilter(level.Trace), Renderer: stubEncoder{}, Queue: q})
	p.Close()

	if err := p.Emit(context.Background(), record.Record{Level: level.Info, Time: time.Now()}); err != nil {
		t.Fatalf("Emit on closed pipeline: %v", err)
	}
	if m := q.Metrics(); m.Enqueued != 0 {
		t.Fatalf("Enqueued = %d, want 0 on closed pipeline", m.Enqueued)
	}
}

var (
	_ queue.Queue = runqueue.New(runqueue.Options{})
	_             = bytes.Buffer{}
)
