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

// Package loki implements apis/sink.Sink as a batched push to a
// Loki-compatible HTTP ingestion endpoint.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	asink "github.com/fluxlog/fluxlog/apis/sink"
)

// ErrNoTransport is returned by New when no *http.Client or
// http.RoundTripper is supplied: a Loki sink without a transport cannot
// function, so construction fails fast rather than deferring the error
// to the first Write.
var ErrNoTransport = errors.New("sink/loki: no http client or round tripper configured")

// Options configures the Loki sink.
type Options struct {
	// PushURL is the full push endpoint, e.g.
	// "http://loki:3100/loki/api/v1/push".
	PushURL string

	// Labels are attached to every stream pushed by this sink (e.g.
	// {"service": "api", "env": "prod"}).
	Labels map[string]string

	// Client is the HTTP client used to push batches. Either Client or
	// RoundTripper must be set.
	Client *http.Client

	// RoundTripper, if Client is nil, is used to build a *http.Client
	// with default settings.
	RoundTripper http.RoundTripper

	// Name overrides the reported sink name. Defaults to "loki".
	Name string
}

type lokiSink struct {
	name    string
	pushURL string
	labels  map[string]string
	client  *http.Client
}

var (
	_ asink.Sink        = (*lokiSink)(nil)
	_ asink.BatchWriter = (*lokiSink)(nil)
)

// New constructs a Loki sink. A missing transport is a configuration
// error (fail fast), per spec.
func New(opt Options) (asink.Sink, error) {
	client := opt.Client
	if client == nil {
		if opt.RoundTripper == nil {
			return nil, ErrNoTransport
		}
		client = &http.Client{Transport: opt.RoundTripper, Timeout: 10 * time.Second}
	}

	name := opt.Name
	if name == "" {
		name = "loki"
	}

	return &lokiSink{name: name, pushURL: opt.PushURL, labels: opt.Labels, client: client}, nil
}

func (s *lokiSink) Name() string { return s.name }

// Write pushes a single entry as a one-value stream, timestamped with
// the current time since a lone Write carries no event time of its
// own. Prefer WriteBatch for multiple entries: every Write is its own
// HTTP round trip.
func (s *lokiSink) Write(ctx context.Context, entry []byte) error {
	return s.WriteBatch(ctx, []asink.BatchEntry{{Payload: entry, Time: time.Now()}})
}

// WriteBatch packs every entry into a single Loki push request: one
// stream (this sink's configured Labels) carrying one [timestamp_ns,
// line] pair per entry, timestamped with each entry's own rendered
// event time rather than a single wall-clock sample for the batch.
func (s *lokiSink) WriteBatch(ctx context.Context, entries []asink.BatchEntry) error {
	if len(entries) == 0 {
		return nil
	}

	body, err := s.encodePush(entries)
	if err != nil {
		return fmt.Errorf("sink/loki: encode push body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{code: resp.StatusCode, body: string(snippet)}
	}
	return nil
}

// Flush is a no-op: this sink pushes synchronously on every
// Write/WriteBatch call, so there is nothing buffered to flush.
func (s *lokiSink) Flush(context.Context) error { return nil }

// Close is a no-op: the underlying *http.Client is owned by the caller
// that constructed Options.Client.
func (s *lokiSink) Close(context.Context) error { return nil }

// pushRequest is the Loki push API wire format:
// {"streams": [{"stream": {...labels}, "values": [[ns_string, line], ...]}]}
type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string        `json:"values"`
}

func (s *lokiSink) encodePush(entries []asink.BatchEntry) ([]byte, error) {
	values := make([][2]string, len(entries))
	for i, e := range entries {
		ts := e.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		values[i] = [2]string{strconv.FormatInt(ts.UnixNano(), 10), string(e.Payload)}
	}

	req := pushRequest{Streams: []pushStream{{Stream: s.labels, Values: values}}}
	return json.Marshal(req)
}

// statusError carries an HTTP status code so runtime/fanout's
// HTTPErrClassifier can distinguish transient from permanent failures.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sink/loki: push returned status %d: %s", e.code, e.body)
}

func (e *statusError) StatusCode() int { return e.code }
