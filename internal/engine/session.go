package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/trace"
)

// ModelStore loads and saves a whole model. Implemented by store.Store and
// store.Memory.
type ModelStore interface {
	Load(ctx context.Context) (*model.Model, error)
	Save(ctx context.Context, m *model.Model) error
}

// Validator checks the structural consistency of a model. It is called when
// a session opens and before it saves.
type Validator interface {
	Validate(ctx context.Context, m *model.Model) error
}

// Recorder appends merge records to a durable log. A record is written
// inside the merge's undo boundary: if Record fails the merge is rolled
// back.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Outcome classifies a completed merge.
type Outcome string

const (
	// OutcomeCreated means the trace produced a new interaction.
	OutcomeCreated Outcome = "created"
	// OutcomeMerged means the trace was folded into an existing interaction.
	OutcomeMerged Outcome = "merged"
	// OutcomeDuplicate means the trace id was already applied.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeAborted means the merge failed and was rolled back.
	OutcomeAborted Outcome = "aborted"
)

// Record is one merge-log entry.
type Record struct {
	Seq               int64        `json:"seq"`
	SessionID         string       `json:"session_id"`
	Scenario          string       `json:"scenario"`
	TraceID           int64        `json:"trace_id"`
	FingerprintDigest string       `json:"fingerprint_digest"`
	Outcome           Outcome      `json:"outcome"`
	Trace             *trace.Trace `json:"trace"`
}

// Result describes the effect of one Merge call.
type Result struct {
	Seq         int64
	TraceID     int64
	Scenario    string
	Interaction string
	Fingerprint string
	Outcome     Outcome

	// StaticApplied and DeploymentApplied report whether the trace
	// contributed to the static and deployment views.
	StaticApplied     bool
	DeploymentApplied bool
}

// Created reports whether the merge created a new interaction.
func (r Result) Created() bool { return r.Outcome == OutcomeCreated }

// Duplicate reports whether the trace id had already been applied.
func (r Result) Duplicate() bool { return r.Outcome == OutcomeDuplicate }

// Session is the single writer for one model.
//
// Thread-safety model:
//   - Merge(): safe from any goroutine; merges are serialized by a mutex
//     held for the full merge of one trace
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Session holds all merge state. There are no package-level registries.
type Session struct {
	mu sync.Mutex

	id        string
	model     *model.Model
	store     ModelStore
	validator Validator
	recorder  Recorder
	clock     SeqSource
	queue     *requestQueue

	clampZeroEntry bool
	rateScale      int32
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	idGen          SessionIDGenerator
	store          ModelStore
	validator      Validator
	recorder       Recorder
	clock          SeqSource
	clampZeroEntry bool
	rateScale      int32
}

// WithSessionIDGenerator sets the session id source. Default: UUIDv7.
func WithSessionIDGenerator(g SessionIDGenerator) Option {
	return func(c *sessionConfig) { c.idGen = g }
}

// WithStore sets the store Close saves to.
func WithStore(s ModelStore) Option {
	return func(c *sessionConfig) { c.store = s }
}

// WithValidator sets the validator run on open and before save.
func WithValidator(v Validator) Option {
	return func(c *sessionConfig) { c.validator = v }
}

// WithRecorder sets the merge-log recorder.
func WithRecorder(r Recorder) Option {
	return func(c *sessionConfig) { c.recorder = r }
}

// WithClock sets the merge-log sequence source. Default: NewClock().
func WithClock(s SeqSource) Option {
	return func(c *sessionConfig) { c.clock = s }
}

// WithClampZeroEntry controls whether a zero entry-span net time is
// recorded as 1. Default: true.
func WithClampZeroEntry(clamp bool) Option {
	return func(c *sessionConfig) { c.clampZeroEntry = clamp }
}

// WithRateScale sets the fractional digits of arrival rates.
// Default: model.DefaultRateScale.
func WithRateScale(scale int32) Option {
	return func(c *sessionConfig) { c.rateScale = scale }
}

// NewSession creates a session over m. A nil m starts an empty model.
func NewSession(m *model.Model, opts ...Option) *Session {
	cfg := sessionConfig{
		idGen:          UUIDv7Generator{},
		clampZeroEntry: true,
		rateScale:      model.DefaultRateScale,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}
	if m == nil {
		m = model.New()
	}
	if m.Static == nil {
		m.Static = model.NewStaticGraph()
	}

	return &Session{
		id:             cfg.idGen.Generate(),
		model:          m,
		store:          cfg.store,
		validator:      cfg.validator,
		recorder:       cfg.recorder,
		clock:          cfg.clock,
		queue:          newRequestQueue(),
		clampZeroEntry: cfg.clampZeroEntry,
		rateScale:      cfg.rateScale,
	}
}

// Open loads the model from s, validates it, and starts a session that
// saves back to s on Close.
func Open(ctx context.Context, s ModelStore, opts ...Option) (*Session, error) {
	m, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	sess := NewSession(m, append([]Option{WithStore(s)}, opts...)...)
	if err := sess.validate(ctx); err != nil {
		return nil, fmt.Errorf("validate loaded model: %w", err)
	}
	slog.Info("merge session opened",
		"session_id", sess.id,
		"scenarios", len(m.Scenarios),
	)
	return sess, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Model returns the live model. Callers must not mutate it while merges
// may run.
func (s *Session) Model() *model.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Merge merges one trace into scenario. Either the whole merge takes
// effect or, on error, the model is left exactly as it was.
func (s *Session) Merge(ctx context.Context, scenario string, t *trace.Trace) (Result, error) {
	if t == nil {
		err := structuralMismatch(0, "", "nil trace")
		slog.Error("trace merge aborted", "session_id", s.id, "scenario", scenario, "error", err)
		recordMergeMetrics(ctx, 0, OutcomeAborted)
		return Result{Scenario: scenario, Outcome: OutcomeAborted}, err
	}

	ctx, span := startMergeSpan(ctx, scenario, t.ID)
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	res, err := s.merge(ctx, scenario, t)
	s.mu.Unlock()

	if err != nil {
		res.Outcome = OutcomeAborted
		slog.Error("trace merge aborted",
			"session_id", s.id,
			"trace_id", t.ID,
			"scenario", scenario,
			"error", err,
		)
	} else {
		slog.Info("trace merged",
			"seq", res.Seq,
			"trace_id", t.ID,
			"scenario", scenario,
			"interaction", res.Interaction,
			"outcome", res.Outcome,
		)
	}
	setMergeSpanResult(span, res, err)
	recordMergeMetrics(ctx, time.Since(start), res.Outcome)
	return res, err
}

// merge does the work of Merge. Caller holds s.mu.
func (s *Session) merge(ctx context.Context, scenario string, t *trace.Trace) (Result, error) {
	res := Result{TraceID: t.ID, Scenario: scenario}
	if err := t.Validate(); err != nil {
		return res, structuralMismatch(t.ID, "", "%v", err)
	}

	fp := trace.Fingerprint(t)
	res.Fingerprint = fp

	txn := model.Begin(s.model, scenario)
	defer txn.Rollback()

	err := s.apply(ctx, txn, scenario, t, fp, &res)
	if err != nil {
		var me *MergeError
		if errors.As(err, &me) && me.Fingerprint == "" {
			me.Fingerprint = fp
		}
		res.Seq = 0
		return res, err
	}

	txn.Commit()
	return res, nil
}

func (s *Session) apply(ctx context.Context, txn *model.Txn, scenario string, t *trace.Trace, fp string, res *Result) error {
	sc, in, created, err := scenarioIndex{m: s.model}.getOrCreate(t.ID, scenario, fp)
	if err != nil {
		return err
	}
	res.Interaction = in.Name

	if created {
		slog.Debug("reconstructing interaction",
			"trace_id", t.ID,
			"scenario", scenario,
			"interaction", in.Name,
			"messages", len(t.Messages),
		)
		if err := reconstruct(sc, in, t); err != nil {
			return err
		}
	} else {
		txn.Track(in)
	}

	applied, err := aggregator{clampZeroEntry: s.clampZeroEntry}.applyTrace(sc, in, t, fp)
	if err != nil {
		return err
	}
	key := digest.Fingerprint(fp)
	if sb := (staticBuilder{}); sb.pending(s.model.Static, key) {
		txn.TrackStatic()
		res.StaticApplied, res.DeploymentApplied = sb.merge(s.model.Static, t, key)
	}

	switch {
	case created:
		res.Outcome = OutcomeCreated
	case applied:
		res.Outcome = OutcomeMerged
	default:
		res.Outcome = OutcomeDuplicate
	}

	// Merges are serialized, so the seq read here is the one Next hands
	// out below. It is only consumed once the record is durable.
	res.Seq = s.clock.Current() + 1
	if s.recorder != nil {
		rec := Record{
			Seq:               res.Seq,
			SessionID:         s.id,
			Scenario:          scenario,
			TraceID:           t.ID,
			FingerprintDigest: key,
			Outcome:           res.Outcome,
			Trace:             t,
		}
		if err := s.recorder.Record(ctx, rec); err != nil {
			return fmt.Errorf("record merge %d: %w", res.Seq, err)
		}
	}
	s.clock.Next()
	return nil
}

// ArrivalRate returns the open arrival rate of scenario.
func (s *Session) ArrivalRate(scenario string) (*apd.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.model.Scenario(scenario)
	if sc == nil {
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}
	return sc.OpenArrivalRate(s.rateScale)
}

// Enqueue submits a trace for the Run loop.
// Returns false once the session has been stopped.
func (s *Session) Enqueue(scenario string, t *trace.Trace) bool {
	return s.queue.Enqueue(Request{Scenario: scenario, Trace: t})
}

// Run drains enqueued traces on the calling goroutine until ctx is
// cancelled or Stop is called and the queue is empty.
//
// A failed merge is logged and processing continues with the next trace;
// the failed trace has already been rolled back.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("merge loop starting", "session_id", s.id)

	for {
		if req, ok := s.queue.TryDequeue(); ok {
			// Merge logs its own failures.
			_, _ = s.Merge(ctx, req.Scenario, req.Trace)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("merge loop stopping: context cancelled")
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			if s.queue.Drained() {
				slog.Info("merge loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the queue is drained.
func (s *Session) Stop() {
	s.queue.Close()
}

// Validate runs the configured validator, if any.
func (s *Session) Validate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate(ctx)
}

func (s *Session) validate(ctx context.Context) error {
	if s.validator == nil {
		return nil
	}
	return s.validator.Validate(ctx, s.model)
}

// Close validates the model and saves it to the store, if one is set.
func (s *Session) Close(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(ctx); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	slog.Info("merge session closed", "session_id", s.id)
	return nil
}
