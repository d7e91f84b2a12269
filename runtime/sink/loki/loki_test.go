package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	asink "github.com/fluxlog/fluxlog/apis/sink"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNew_RequiresTransport(t *testing.T) {
	if _, err := New(Options{PushURL: "http://example.invalid/push"}); err != ErrNoTransport {
		t.Fatalf("New without transport = %v, want ErrNoTransport", err)
	}
}

func TestLokiSink_WriteBatchEncodesStreamsAndValues(t *testing.T) {
	var captured pushRequest
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return &http.Response{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	})

	s, err := New(Options{
		PushURL:      "http://loki.internal/loki/api/v1/push",
		Labels:       map[string]string{"service": "api"},
		RoundTripper: rt,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = s.(asink.BatchWriter).WriteBatch(context.Background(), []asink.BatchEntry{
		{Payload: []byte(`{"msg":"one"}`), Time: time.Unix(0, 0)},
		{Payload: []byte(`{"msg":"two"}`), Time: time.Unix(0, 0)},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	if len(captured.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(captured.Streams))
	}
	st := captured.Streams[0]
	if st.Stream["service"] != "api" {
		t.Fatalf("stream labels = %v, want service=api", st.Stream)
	}
	if len(st.Values) != 2 {
		t.Fatalf("values = %d, want 2", len(st.Values))
	}
	if st.Values[0][1] != `{"msg":"one"}` {
		t.Fatalf("values[0] line = %q", st.Values[0][1])
	}
}

func TestLokiSink_NonSuccessStatusReturnsStatusError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 429, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	})

	s, err := New(Options{PushURL: "http://loki.internal/push", RoundTripper: rt})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	werr := s.Write(context.Background(), []byte(`{"msg":"x"}`))
	if werr == nil {
		t.Fatalf("expected error on 429 response")
	}
	statusErr, ok := werr.(interface{ StatusCode() int })
	if !ok {
		t.Fatalf("error %v does not expose StatusCode", werr)
	}
	if statusErr.StatusCode() != 429 {
		t.Fatalf("StatusCode = %d, want 429", statusErr.StatusCode())
	}
}

func TestLokiSink_WriteBatchEmptyIsNoop(t *testing.T) {
	called := false
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	})
	s, err := New(Options{PushURL: "http://loki.internal/push", RoundTripper: rt})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bw := s.(asink.BatchWriter)
	if err := bw.WriteBatch(context.Background(), nil); err != nil {
		t.Fatalf("WriteBatch(nil) = %v, want nil", err)
	}
	if called {
		t.Fatalf("expected no HTTP call for empty batch")
	}
}

func TestLokiSink_WriteBatchUsesPerEntryTimestamp(t *testing.T) {
	var captured pushRequest
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return &http.Response{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	})

	s, err := New(Options{PushURL: "http://loki.internal/push", RoundTripper: rt})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Second)
	err = s.(asink.BatchWriter).WriteBatch(context.Background(), []asink.BatchEntry{
		{Payload: []byte(`{"msg":"one"}`), Time: t1},
		{Payload: []byte(`{"msg":"two"}`), Time: t2},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	values := captured.Streams[0].Values
	if values[0][0] != strconv.FormatInt(t1.UnixNano(), 10) {
		t.Fatalf("values[0] ts = %q, want %d", values[0][0], t1.UnixNano())
	}
	if values[1][0] != strconv.FormatInt(t2.UnixNano(), 10) {
		t.Fatalf("values[1] ts = %q, want %d", values[1][0], t2.UnixNano())
	}
	if values[0][0] == values[1][0] {
		t.Fatalf("expected distinct per-entry timestamps, got equal values")
	}
}
