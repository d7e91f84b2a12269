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

// Package fluxlog wires apis/* contracts and runtime/* implementations
// into a single caller-facing Logger: Configure builds the context
// store, pipeline, queue, worker, and fan-out layers from a Settings
// value (merged with any config-file/environment providers), and
// returns a Logger satisfying apis.Logger, apis.FieldLogger and
// apis.ContextLogger.
package fluxlog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fluxlog/fluxlog/apis"
	acontext "github.com/fluxlog/fluxlog/apis/context"
	"github.com/fluxlog/fluxlog/apis/field"
	"github.com/fluxlog/fluxlog/apis/health"
	"github.com/fluxlog/fluxlog/apis/level"
	"github.com/fluxlog/fluxlog/apis/pipeline/plugin"
	"github.com/fluxlog/fluxlog/apis/pipeline/stage"
	aprovider "github.com/fluxlog/fluxlog/apis/provider"
	aqueue "github.com/fluxlog/fluxlog/apis/queue"
	"github.com/fluxlog/fluxlog/apis/record"
	asink "github.com/fluxlog/fluxlog/apis/sink"
	"github.com/fluxlog/fluxlog/internal/diagnostics"
	runtimecontext "github.com/fluxlog/fluxlog/runtime/context"
	"github.com/fluxlog/fluxlog/runtime/encoder"
	consoleenc "github.com/fluxlog/fluxlog/runtime/encoder/console"
	jsonenc "github.com/fluxlog/fluxlog/runtime/encoder/json"
	"github.com/fluxlog/fluxlog/runtime/enrich"
	"github.com/fluxlog/fluxlog/runtime/fanout"
	"github.com/fluxlog/fluxlog/runtime/health/httpd"
	runtimepipeline "github.com/fluxlog/fluxlog/runtime/pipeline"
	runtimeprovider "github.com/fluxlog/fluxlog/runtime/provider"
	runtimequeue "github.com/fluxlog/fluxlog/runtime/queue"
	"github.com/fluxlog/fluxlog/runtime/redact"
	"github.com/fluxlog/fluxlog/runtime/registry"
	"github.com/fluxlog/fluxlog/runtime/sample"
	sinkregistry "github.com/fluxlog/fluxlog/runtime/sink"
	sinkpolicy "github.com/fluxlog/fluxlog/runtime/sink/policy"
	"github.com/fluxlog/fluxlog/runtime/worker"

	// Blank-imported so their init() registers a sink/plugin builder.
	// Configure only ever resolves these by kind string, never by a
	// direct symbol reference, so the registration side effect is the
	// only thing any of these imports is here for.
	_ "github.com/fluxlog/fluxlog/runtime/dedup"
	_ "github.com/fluxlog/fluxlog/runtime/sink/file"
	_ "github.com/fluxlog/fluxlog/runtime/sink/loki"
	_ "github.com/fluxlog/fluxlog/runtime/sink/stdout"
)

// SinkConfig names one sink instance: Kind selects the registered
// builder ("stdout", "file", "loki", or any kind added via
// RegisterSink); Spec carries that builder's parameters.
type SinkConfig struct {
	// ID is the name this sink is referenced by from Settings.Sinks or
	// from a provider's Specification.Sinks. Defaults to Kind if empty,
	// which only works when a single sink of that kind is configured.
	ID   string
	Kind string
	Spec asink.Specification
}

// Settings is the configuration surface accepted by Configure. Every
// field has a documented zero-value behavior, so an empty Settings{}
// (augmented only by an EnvProvider reading FLUXLOG_* variables)
// produces a working, if minimal, logger.
type Settings struct {
	// Service/Version/Env/NodeID/Instance/Region/Component/Subsystem
	// seed the static identity half of the context Pack merged into
	// every record; they never change for the life of the Logger.
	Service   string
	Version   string
	Env       string
	NodeID    string
	Instance  string
	Region    string
	Component string
	Subsystem string

	// MinLevel is the minimum level the level-filter stage keeps.
	// Zero value is level.Trace; callers almost always want level.Info.
	MinLevel level.Level

	// Fields are static fields appended to every record emitted by the
	// resulting Logger, ahead of any fields passed to a log call.
	Fields []field.Field

	// Sinks enumerates every sink instance available to this Logger.
	// Which of them are actually wired into the fan-out is controlled
	// by ActiveSinks (or a provider's Specification.Sinks); Sinks itself
	// is just the catalog.
	Sinks []SinkConfig

	// ActiveSinks lists the Sinks IDs to fan out to. Empty means "every
	// sink in Sinks", in catalog order.
	ActiveSinks []string

	// Encoder selects the renderer: "json" (default) or "console".
	Encoder string

	QueueEnabled        bool
	QueueMaxSize        int
	QueueOverflow       string
	QueueBatchSize      int
	QueueBatchTimeoutMS int
	QueueMaxRetries     int
	QueueRetryDelayMS   int

	// SamplingRate is the Bernoulli keep-probability, in [0, 1]. Zero
	// value is treated as "unset" (1.0, i.e. sampling disabled) rather
	// than "drop everything" — an operator has to opt into dropping.
	SamplingRate float64

	RedactFields      []string
	RedactPatterns    []string
	RedactReplacement string
	RedactLevel       level.Level

	EnableAutoRedactPII bool
	CustomPIIPatterns   map[string]string

	EnableResourceMetrics bool

	// TraceIDHeader names the inbound header a web-framework adapter
	// should read an upstream trace id from before calling
	// runtime/context.EnsureTraceID. fluxlog itself has no HTTP
	// middleware of its own; this is carried through for adapters.
	TraceIDHeader string

	// Pre lists pipeline plugins (rate_limit, dedup, or any kind
	// registered via RegisterPlugin-style init() side effects) run
	// after redaction and before the sampler, in order.
	Pre []plugin.Specification

	// ConfigPath, if non-empty, adds a runtime/provider.FileProvider
	// reading YAML/JSON from this path (priority 10: overrides Settings
	// but is overridden by EnvPrefix and ExtraProviders below 20).
	ConfigPath string

	// EnvPrefix sets the prefix of the runtime/provider.EnvProvider that
	// is always added (priority 20, the highest built-in). Defaults to
	// "FLUXLOG_" when left empty, so environment overrides are always on
	// unless a caller explicitly sets EnvPrefix to a sentinel they
	// never export.
	EnvPrefix string

	// ExtraProviders are merged alongside ConfigPath/EnvPrefix by their
	// own declared Priority.
	ExtraProviders []aprovider.Provider

	Diagnostics diagnostics.Options

	// HealthAddr, if non-empty, starts an HTTP server exposing
	// runtime/health/httpd's /healthz and /livez on this address.
	HealthAddr string

	// ErrClassifier overrides fanout's default HTTP-aware classifier.
	ErrClassifier fanout.ErrClassifier
	Retry         fanout.RetryConfig
	Breaker       fanout.BreakerConfig

	Worker worker.Options
}

// Logger is fluxlog's caller-facing handle: a structured, pipelined,
// fanned-out logger built by Configure.
type Logger struct {
	pipeline  *runtimepipeline.Pipeline
	store     acontext.Store
	enrichers *runtimepipeline.DynamicStages
	diag      *diagnostics.Logger
	minLevel  level.Level
	fields    []field.Field

	worker   *worker.Worker
	queue    aqueue.Queue
	sinks    []asink.Sink
	health   *http.Server
	aggr     *health.Aggregator

	boundCtx context.Context // non-nil only on a WithContext-derived Logger

	closeOnce sync.Once
}

var (
	_ apis.Logger        = (*Logger)(nil)
	_ apis.FieldLogger   = (*Logger)(nil)
	_ apis.ContextLogger = (*Logger)(nil)
)

// osExit is a var so tests exercising Fatal's side effect can swap it.
var osExit = os.Exit

// Configure builds a Logger from settings, merged with any
// config-file/environment providers settings names. ctx bounds provider
// Snapshot calls and the sink and plugin builders; the returned Logger
// has no further use for it.
func Configure(ctx context.Context, settings Settings) (*Logger, error) {
	spec, err := resolveSpecification(ctx, settings)
	if err != nil {
		return nil, err
	}

	minLevel := settings.MinLevel
	if spec.MinLevel != nil {
		minLevel = *spec.MinLevel
	}

	baseFields := append([]field.Field(nil), settings.Fields...)
	baseFields = append(baseFields, spec.Fields...)

	samplingRate := settings.SamplingRate
	if samplingRate == 0 {
		samplingRate = 1
	}
	if spec.SamplingRate != nil {
		samplingRate = *spec.SamplingRate
	}

	enableAutoRedactPII := settings.EnableAutoRedactPII
	if spec.EnableAutoRedactPII != nil {
		enableAutoRedactPII = *spec.EnableAutoRedactPII
	}
	enableResourceMetrics := settings.EnableResourceMetrics
	if spec.EnableResourceMetrics != nil {
		enableResourceMetrics = *spec.EnableResourceMetrics
	}
	redactLevel := settings.RedactLevel
	if spec.RedactLevel != nil {
		redactLevel = *spec.RedactLevel
	}

	redactFields := settings.RedactFields
	if len(spec.RedactFields) > 0 {
		redactFields = spec.RedactFields
	}
	redactPatternStrs := settings.RedactPatterns
	if len(spec.RedactPatterns) > 0 {
		redactPatternStrs = spec.RedactPatterns
	}
	customPII := settings.CustomPIIPatterns
	if len(spec.CustomPIIPatterns) > 0 {
		customPII = spec.CustomPIIPatterns
	}
	redactReplacement := settings.RedactReplacement
	if spec.RedactReplacement != "" {
		redactReplacement = spec.RedactReplacement
	}

	redactPatterns, err := compilePatterns("redact_pattern", redactPatternStrs)
	if err != nil {
		return nil, err
	}
	piiPatterns, err := compileNamedPatterns(customPII)
	if err != nil {
		return nil, err
	}

	// Store + context enricher: the static Pack first, then whatever a
	// caller bound into the ambient frame overrides it field by field.
	store := runtimecontext.New()
	basePack := acontext.Pack{
		Service:   settings.Service,
		Version:   settings.Version,
		Env:       settings.Env,
		NodeID:    settings.NodeID,
		Instance:  settings.Instance,
		Region:    settings.Region,
		Component: settings.Component,
		Subsystem: settings.Subsystem,
	}
	extractor := acontext.Chain(acontext.Static(basePack), runtimecontext.NewStoreExtractor(store))

	diag := diagnostics.New(settings.Diagnostics)

	sinks, err := buildSinks(ctx, settings, spec)
	if err != nil {
		return nil, err
	}

	aggr := health.NewAggregator()

	classifier := settings.ErrClassifier
	if classifier == nil {
		classifier = fanout.HTTPErrClassifier
	}
	retry := settings.Retry
	if retry.MaxRetries == 0 && spec.QueueMaxRetries != 0 {
		retry.MaxRetries = spec.QueueMaxRetries
	}
	if retry.InitialDelay == 0 && spec.QueueRetryDelayMS != 0 {
		retry.InitialDelay = time.Duration(spec.QueueRetryDelayMS) * time.Millisecond
	}
	fo := fanout.New(sinks, classifier, fanout.Options{
		Retry:       retry,
		Breaker:     settings.Breaker,
		Health:      aggr,
		OnSinkError: diag.SinkError,
	})

	queueEnabled := settings.QueueEnabled
	if spec.QueueEnabled != nil {
		queueEnabled = *spec.QueueEnabled
	}

	var q aqueue.Queue
	var w *worker.Worker
	if queueEnabled {
		q = runtimequeue.New(runtimequeue.Options{
			Capacity:   settingsOr(spec.QueueMaxSize, settings.QueueMaxSize),
			Policy:     overflowPolicy(settingsOrString(spec.QueueOverflow, settings.QueueOverflow)),
			SampleRate: samplingRate,
		})
		wopts := settings.Worker
		if wopts.MaxBatch == 0 {
			wopts.MaxBatch = settingsOr(spec.QueueBatchSize, settings.QueueBatchSize)
		}
		if wopts.PollInterval == 0 && spec.QueueBatchTimeoutMS != 0 {
			wopts.PollInterval = time.Duration(spec.QueueBatchTimeoutMS) * time.Millisecond
		}
		w = worker.Start(q, fo.Dispatch, wopts)
	} else {
		q = &syncQueue{dispatch: fo.Dispatch}
	}

	enrichers := runtimepipeline.NewDynamicStages()

	pre := settings.Pre
	if spec.Pipeline != nil && len(spec.Pipeline.Pre) > 0 {
		pre = spec.Pipeline.Pre
	}
	optionalStages, err := buildOptionalStages(ctx, pre)
	if err != nil {
		return nil, err
	}

	var resourceSampler runtimepipeline.ResourceSampler
	if enableResourceMetrics {
		resourceSampler = enrich.NewResourceSampler()
	}

	renderer := buildEncoder(settings.Encoder)

	fixed := runtimepipeline.Fixed{
		LevelFilter:             runtimepipeline.NewLevelFilter(minLevel),
		ContextEnricher:         runtimepipeline.NewContextEnricher(extractor),
		HostProcessEnricher:     runtimepipeline.NewHostProcessEnricher(),
		RequestResponseEnricher: runtimepipeline.NewRequestResponseEnricher(),
		CustomEnrichers:         []stage.Stage{enrichers},
		FieldRedactor:           redact.NewFieldRedactor(redactFields, redactReplacement),
		PatternRedactor:         redact.NewPatternRedactor(redactPatterns, len(redactPatterns) > 0, redactLevel, redactReplacement),
		PIIRedactor:             redact.NewPIIRedactor(piiPatterns, enableAutoRedactPII, redactReplacement),
		OptionalStages:          optionalStages,
		Sampler:                 sample.NewSampler(samplingRate),
		Renderer:                renderer,
		Queue:                   q,
		OnStageError:            diag.StageError,
	}
	if enableResourceMetrics {
		fixed.ResourceEnricher = runtimepipeline.NewResourceEnricher(resourceSampler)
	}

	p := runtimepipeline.New(fixed)

	l := &Logger{
		pipeline:  p,
		store:     store,
		enrichers: enrichers,
		diag:      diag,
		minLevel:  minLevel,
		fields:    baseFields,
		worker:    w,
		queue:     q,
		sinks:     sinks,
		aggr:      aggr,
	}

	if settings.HealthAddr != "" {
		srv := &http.Server{Addr: settings.HealthAddr, Handler: httpd.Handler(httpd.Options{Aggregator: aggr})}
		l.health = srv
		go srv.ListenAndServe() //nolint:errcheck // reported via diagnostics would require a second channel; a dead health endpoint doesn't affect log delivery
	}

	return l, nil
}

// resolveSpecification merges an inline Settings-derived Specification
// (lowest priority) with ConfigPath/EnvPrefix/ExtraProviders, in
// priority order (lowest first).
func resolveSpecification(ctx context.Context, settings Settings) (*aprovider.Specification, error) {
	providers := []aprovider.Provider{inlineProvider{settings: settings}}

	if settings.ConfigPath != "" {
		providers = append(providers, runtimeprovider.NewFileProvider(settings.ConfigPath))
	}
	envPrefix := settings.EnvPrefix
	if envPrefix == "" {
		envPrefix = "FLUXLOG_"
	}
	providers = append(providers, runtimeprovider.NewEnvProvider(envPrefix))
	providers = append(providers, settings.ExtraProviders...)

	sort.SliceStable(providers, func(i, j int) bool { return providers[i].Priority() < providers[j].Priority() })

	specs := make([]*aprovider.Specification, 0, len(providers))
	for _, p := range providers {
		snap, _, err := p.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("fluxlog: provider %s: %w", p.Name(), err)
		}
		specs = append(specs, snap)
	}
	return aprovider.MergeAll(specs...), nil
}

// inlineProvider projects a Settings value into a Specification at
// priority 0, the lowest of any built-in provider, so a config file or
// environment variable always wins on conflict.
type inlineProvider struct{ settings Settings }

func (inlineProvider) Name() string  { return "settings" }
func (inlineProvider) Priority() int { return 0 }
func (p inlineProvider) Watch(context.Context) (aprovider.Stream, error) {
	return nil, nil
}
func (p inlineProvider) Snapshot(context.Context) (*aprovider.Specification, string, error) {
	s := p.settings
	spec := &aprovider.Specification{
		Sinks:             s.ActiveSinks,
		RedactFields:      s.RedactFields,
		RedactPatterns:    s.RedactPatterns,
		RedactReplacement: s.RedactReplacement,
		CustomPIIPatterns: s.CustomPIIPatterns,
		TraceIDHeader:     s.TraceIDHeader,
	}
	lv := s.MinLevel
	spec.MinLevel = &lv
	if s.SamplingRate != 0 {
		v := s.SamplingRate
		spec.SamplingRate = &v
	}
	if s.RedactLevel != 0 {
		lv := s.RedactLevel
		spec.RedactLevel = &lv
	}
	if s.EnableAutoRedactPII {
		v := true
		spec.EnableAutoRedactPII = &v
	}
	if s.EnableResourceMetrics {
		v := true
		spec.EnableResourceMetrics = &v
	}
	if s.QueueEnabled {
		v := true
		spec.QueueEnabled = &v
	}
	spec.QueueMaxSize = s.QueueMaxSize
	spec.QueueOverflow = s.QueueOverflow
	spec.QueueBatchSize = s.QueueBatchSize
	spec.QueueBatchTimeoutMS = s.QueueBatchTimeoutMS
	spec.QueueMaxRetries = s.QueueMaxRetries
	spec.QueueRetryDelayMS = s.QueueRetryDelayMS
	return spec, "", nil
}

func buildSinks(ctx context.Context, settings Settings, spec *aprovider.Specification) ([]asink.Sink, error) {
	names := spec.Sinks
	if len(names) == 0 {
		for _, sc := range settings.Sinks {
			names = append(names, sinkID(sc))
		}
	}

	byID := make(map[string]SinkConfig, len(settings.Sinks))
	for _, sc := range settings.Sinks {
		byID[sinkID(sc)] = sc
	}

	sinks := make([]asink.Sink, 0, len(names))
	for _, name := range names {
		sc, ok := byID[name]
		if !ok {
			return nil, fmt.Errorf("fluxlog: no sink configured with id %q", name)
		}
		s, err := sinkregistry.Build(ctx, sc.Kind, sinkID(sc), sc.Spec)
		if err != nil {
			return nil, fmt.Errorf("fluxlog: build sink %q (%s): %w", sinkID(sc), sc.Kind, err)
		}
		if sc.Spec.Batch != nil {
			s = sinkpolicy.WithBatch(s, sinkpolicy.BatchOptions{
				Batch:        *sc.Spec.Batch,
				Backpressure: sc.Spec.Backpressure,
			})
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func sinkID(sc SinkConfig) string {
	if sc.ID != "" {
		return sc.ID
	}
	return sc.Kind
}

func buildOptionalStages(ctx context.Context, specs []plugin.Specification) ([]stage.Stage, error) {
	stages := make([]stage.Stage, 0, len(specs))
	for _, s := range specs {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		built, err := runtimepipeline.BuildPlugin(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("fluxlog: build plugin %q: %w", s.Kind, err)
		}
		stages = append(stages, built)
	}
	return stages, nil
}

func buildEncoder(kind string) encoder.Encoder {
	opt := encoder.Options{}
	if kind == "console" {
		return consoleenc.New(opt)
	}
	return jsonenc.New(opt)
}

func compilePatterns(prefix string, exprs []string) ([]redact.Pattern, error) {
	out := make([]redact.Pattern, 0, len(exprs))
	for i, expr := range exprs {
		p, err := redact.CompilePattern(fmt.Sprintf("%s_%d", prefix, i), expr)
		if err != nil {
			return nil, fmt.Errorf("fluxlog: compile pattern %q: %w", expr, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func compileNamedPatterns(named map[string]string) ([]redact.Pattern, error) {
	out := make([]redact.Pattern, 0, len(named))
	for name, expr := range named {
		p, err := redact.CompilePattern(name, expr)
		if err != nil {
			return nil, fmt.Errorf("fluxlog: compile PII pattern %q: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func overflowPolicy(name string) aqueue.OverflowPolicy {
	switch name {
	case "block":
		return aqueue.OverflowBlock
	case "sample":
		return aqueue.OverflowSample
	default:
		return aqueue.OverflowDrop
	}
}

func settingsOr(spec, fallback int) int {
	if spec != 0 {
		return spec
	}
	return fallback
}

func settingsOrString(spec, fallback string) string {
	if spec != "" {
		return spec
	}
	return fallback
}

// syncQueue implements apis/queue.Queue by dispatching each record
// immediately and synchronously, for QueueEnabled=false deployments
// that want no buffering between the pipeline and the sinks.
type syncQueue struct {
	dispatch worker.Dispatch
	mu       sync.Mutex
	enqueued uint64
}

func (q *syncQueue) Enqueue(ctx context.Context, r record.Record) aqueue.Outcome {
	q.dispatch(ctx, []record.Record{r})
	q.mu.Lock()
	q.enqueued++
	q.mu.Unlock()
	return aqueue.Enqueued
}
func (q *syncQueue) Dequeue(context.Context, int) []record.Record { return nil }
func (q *syncQueue) Close()                                       {}
func (q *syncQueue) DrainOnShutdown() int                         { return 0 }
func (q *syncQueue) Metrics() aqueue.Metrics {
	q.mu.Lock()
	defer q.mu.Unlock()
	return aqueue.Metrics{Enqueued: q.enqueued}
}

// Enabled reports whether lvl would pass the configured level filter.
func (l *Logger) Enabled(lvl level.Level) bool { return lvl >= l.minLevel }

func (l *Logger) Debug(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Debug, msg, fields...)
}
func (l *Logger) Info(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Info, msg, fields...)
}
func (l *Logger) Warn(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Warn, msg, fields...)
}
func (l *Logger) Error(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Error, msg, fields...)
}

// Fatal logs at level.Fatal then terminates the process. Exit behavior
// lives only here, never in the generic Log path, so a caller building
// their own fatal-like wrapper around Log never triggers it by accident.
func (l *Logger) Fatal(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Fatal, msg, fields...)
	osExit(1)
}

func (l *Logger) Log(ctx context.Context, lvl level.Level, msg string, fields ...field.Field) {
	if !l.Enabled(lvl) {
		return
	}
	if l.boundCtx != nil {
		ctx = l.boundCtx
	}

	all := make([]field.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	var recErr error
	for _, f := range all {
		if f.Key != "error" {
			continue
		}
		if e, ok := f.Value.(error); ok {
			recErr = e
		}
	}

	r := record.NewRecord(time.Now().UTC(), lvl, msg, acontext.Pack{}, all, recErr)
	if err := l.pipeline.Emit(ctx, r); err != nil {
		l.diag.StageError("emit", err)
	}
}

// WithFields returns a derived Logger that always includes fields
// ahead of any fields passed to a later log call.
func (l *Logger) WithFields(fields ...field.Field) apis.Logger {
	next := *l
	next.fields = append(append([]field.Field(nil), l.fields...), fields...)
	return &next
}

// WithContext returns a derived Logger that ignores the ctx argument
// on every subsequent log call, using the bound ctx instead.
func (l *Logger) WithContext(ctx context.Context) apis.Logger {
	next := *l
	next.boundCtx = ctx
	return &next
}

// RegisterSink registers a sink builder under kind for use by
// SinkConfig.Kind in a later Configure call. Unlike the package-private
// init()-time registrations used by runtime/sink/*, this returns an
// error on a duplicate kind instead of panicking, since a caller-driven
// registration happening at an arbitrary point in a long-running
// process is not a programming error in the same way a duplicate
// init() registration would be.
func RegisterSink(kind string, b registry.Builder[asink.Sink, asink.Specification]) error {
	return sinkregistry.Registry.Register(registry.Key{Kind: "sink", Name: kind}, b)
}

// RegisterEnricher adds a custom pipeline stage run after the builtin
// enrichers and before redaction, for the life of l.
func (l *Logger) RegisterEnricher(name string, s stage.Stage) error {
	return l.enrichers.Append(name, s)
}

// BindContext merges fields into the correlation frame carried by ctx;
// see apis/context.Store.Bind.
func (l *Logger) BindContext(ctx context.Context, fields map[string]any) (context.Context, error) {
	return l.store.Bind(ctx, fields)
}

// GetContext returns a shallow copy of the correlation frame carried by
// ctx; see apis/context.Store.Get.
func (l *Logger) GetContext(ctx context.Context) map[string]any {
	return l.store.Get(ctx)
}

// ClearContext returns a context.Context with an empty correlation
// frame; see apis/context.Store.Clear.
func (l *Logger) ClearContext(ctx context.Context) context.Context {
	return l.store.Clear(ctx)
}

// ContextCopy captures the correlation frame carried by ctx so it can
// be replayed on an unrelated goroutine via RunWith.
func (l *Logger) ContextCopy(ctx context.Context) acontext.Snapshot {
	return l.store.Snapshot(ctx)
}

// RunWith invokes fn with a context.Context carrying exactly the frame
// captured by ContextCopy, independent of fn's caller's ambient context.
func (l *Logger) RunWith(snapshot acontext.Snapshot, fn func(ctx context.Context)) {
	l.store.RunWith(snapshot, fn)
}

// Shutdown stops accepting new records, drains any buffered records for
// up to Settings.Worker.ShutdownDrain, then flushes and closes every
// sink and (if HealthAddr was set) shuts down the health HTTP server
// within deadline. It is safe to call more than
// once; only the first call has effect.
func (l *Logger) Shutdown(deadline time.Duration) error {
	var firstErr error
	l.closeOnce.Do(func() {
		l.pipeline.Close()
		if l.worker != nil {
			l.worker.Stop()
		} else {
			l.queue.Close()
		}

		ctx, cancel := context.WithTimeout(context.Background(), deadline)
		defer cancel()

		for _, s := range l.sinks {
			if err := s.Flush(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
			if err := s.Close(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if l.health != nil {
			if err := l.health.Shutdown(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
