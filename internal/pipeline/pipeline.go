// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one article generation run through its fixed
// phases: research, planning, writing, reviewing, humanizing, and saving.
// The orchestrator owns the article state for the run, times each phase,
// reports progress, and turns any stage failure into a FatalError.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/internal/research"
	"github.com/pdiddy/article-engine/internal/stage"
	"github.com/pdiddy/article-engine/pkg/types"
)

var (
	// ErrFatal matches every *FatalError with errors.Is.
	ErrFatal = errors.New("fatal pipeline error")

	// ErrNoTopic is returned by Run before any phase starts when the
	// request has no topic.
	ErrNoTopic = errors.New("topic is required")
)

// FatalError ends a run in the failed phase.
type FatalError struct {
	// Phase is the phase that was running when the run failed.
	Phase types.Phase
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline failed during %s: %v", e.Phase, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFatal.
func (e *FatalError) Is(target error) bool { return target == ErrFatal }

// Researcher gathers background material. *research.Aggregator satisfies it.
type Researcher interface {
	Research(ctx context.Context, topic string, subtopics []string, p types.Platform) types.ResearchBundle
}

// Saver persists a finished article and its metadata.
type Saver interface {
	Save(ctx context.Context, content string, md types.Metadata) (types.SaveResult, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, content string, md types.Metadata) (types.SaveResult, error)

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, content string, md types.Metadata) (types.SaveResult, error) {
	return f(ctx, content, md)
}

// statsReporter is implemented by generators that count their work, such
// as *gateway.Gateway.
type statsReporter interface {
	Stats() types.GatewayStats
}

// Request describes one article to generate.
type Request struct {
	Topic       string
	Description string
	Style       types.WritingStyle
	Platform    types.Platform

	// Subtopics to research. Empty lets the research phase choose.
	Subtopics []string

	// Outline, when set, replaces the generated outline.
	Outline *types.Outline

	// Concurrency is the number of sections written at once (default 1).
	Concurrency int

	// Observer receives this run's progress events in addition to the
	// orchestrator's own observer.
	Observer progress.Observer
}

// Result is the outcome of one run.
type Result struct {
	// Phase is PhaseComplete or PhaseFailed.
	Phase    types.Phase
	State    types.ArticleState
	Metadata types.Metadata
	Saved    types.SaveResult
}

// Article returns the finished article text.
func (r Result) Article() string { return r.State.Article() }

// Orchestrator runs the article pipeline. It is safe to call Run from
// several goroutines; each call owns its own state.
type Orchestrator struct {
	gen        stage.Generator
	researcher Researcher
	saver      Saver
	observer   progress.Observer
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithResearcher replaces the default research aggregator.
func WithResearcher(r Researcher) Option { return func(o *Orchestrator) { o.researcher = r } }

// WithSaver sets where finished articles go. Without one the saving phase
// only builds metadata.
func WithSaver(s Saver) Option { return func(o *Orchestrator) { o.saver = s } }

// WithObserver sets an observer that sees every run's events.
func WithObserver(obs progress.Observer) Option { return func(o *Orchestrator) { o.observer = obs } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// New returns an orchestrator whose stages call gen. Research defaults to
// an offline aggregator over the same generator.
func New(gen stage.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{gen: gen, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.researcher == nil {
		o.researcher = research.New(gen, research.WithLogger(o.logger))
	}
	return o
}

// run holds the per-call state of Run.
type run struct {
	*Orchestrator
	req    Request
	state  types.ArticleState
	params stage.Params
	start  time.Time
	events progress.Observer
	before types.GatewayStats
	meta   types.Metadata
	saved  types.SaveResult
}

// Run executes every phase in order. On failure the returned error is a
// *FatalError, the last emitted event has PhaseFailed, and the result
// holds the state reached so far.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return Result{}, ErrNoTopic
	}
	if req.Style == "" {
		req.Style = types.StyleConversational
	}
	if req.Platform == "" {
		req.Platform = types.PlatformNone
	}

	r := &run{Orchestrator: o, req: req, start: o.now()}
	r.events = r.timed(progress.Join(o.observer, req.Observer))
	r.state = types.NewArticleState(req.Topic, req.Description, req.Style, req.Platform)
	r.state.PlatformStyle = platform.Profile(req.Platform)
	r.params = stage.ParamsFor(r.state)
	r.params.Concurrency = req.Concurrency
	r.params.Observer = r.events
	if sr, ok := o.gen.(statsReporter); ok {
		r.before = sr.Stats()
	}

	logger := o.logger.With(zap.String("topic", req.Topic))
	logger.Info("pipeline started",
		zap.String("style", string(req.Style)),
		zap.String("platform", string(req.Platform)))

	for _, st := range r.steps() {
		if err := ctx.Err(); err != nil {
			return r.fail(logger, st.phase, err)
		}
		progress.Emit(r.events, types.ProgressEvent{Phase: st.phase})

		began := o.now()
		err := r.guard(ctx, st)
		r.state.Timings[st.phase] = o.now().Sub(began).Seconds()
		if err != nil {
			return r.fail(logger, st.phase, err)
		}
		logger.Debug("phase finished",
			zap.String("phase", string(st.phase)),
			zap.Float64("seconds", r.state.Timings[st.phase]))
	}

	progress.Emit(r.events, types.ProgressEvent{Phase: types.PhaseComplete})
	logger.Info("pipeline complete",
		zap.Int("words", r.meta.WordCount),
		zap.Int("sections", r.meta.SectionCount),
		zap.String("path", r.saved.ContentPath),
		zap.Duration("elapsed", o.now().Sub(r.start)))

	return Result{Phase: types.PhaseComplete, State: r.state, Metadata: r.meta, Saved: r.saved}, nil
}

type step struct {
	phase types.Phase
	fn    func(ctx context.Context) error
}

func (r *run) steps() []step {
	return []step{
		{types.PhaseResearch, r.research},
		{types.PhasePlanning, r.stage(&stage.Planner{Gen: r.gen, Logger: r.logger, Outline: r.req.Outline})},
		{types.PhaseWriting, r.stage(&stage.Writer{Gen: r.gen, Logger: r.logger})},
		{types.PhaseReviewing, r.stage(&stage.Reviewer{Gen: r.gen, Logger: r.logger})},
		{types.PhaseHumanizing, r.stage(&stage.Humanizer{Gen: r.gen, Logger: r.logger})},
		{types.PhaseSaving, r.save},
	}
}

// guard runs one step and converts a panic into an error.
func (r *run) guard(ctx context.Context, st step) (err error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("stage panicked",
				zap.String("phase", string(st.phase)),
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	return st.fn(ctx)
}

func (r *run) research(ctx context.Context) error {
	bundle := r.researcher.Research(ctx, r.req.Topic, r.req.Subtopics, r.req.Platform)
	r.state.Research = &bundle
	return nil
}

func (r *run) stage(s stage.Stage) func(context.Context) error {
	return func(ctx context.Context) error {
		next, err := s.Run(ctx, r.state, r.params)
		if err != nil {
			return err
		}
		// Timings belong to the orchestrator.
		next.Timings = r.state.Timings
		r.state = next
		return nil
	}
}

func (r *run) save(ctx context.Context) error {
	r.meta = r.metadata()
	if r.saver == nil {
		return nil
	}
	saved, err := r.saver.Save(ctx, r.state.Final, r.meta)
	if err != nil {
		return fmt.Errorf("saving article: %w", err)
	}
	r.saved = saved
	return nil
}

// metadata describes the finished article for persistence.
func (r *run) metadata() types.Metadata {
	s := r.state
	md := types.Metadata{
		Topic:        s.Topic,
		Description:  s.Description,
		Style:        s.Style,
		Platform:     s.Platform,
		Title:        s.Outline.Title,
		WordCount:    draft.WordCount(s.Final),
		SectionCount: draft.CountHeadings(s.Final),
		GeneratedAt:  r.now().UTC(),
		Timings:      make(map[types.Phase]float64, len(s.Timings)),
		TotalSeconds: r.now().Sub(r.start).Seconds(),
		ReviewNotes:  s.ReviewNotes,
		Outline:      s.Outline.Clone(),
	}
	for k, v := range s.Timings {
		md.Timings[k] = v
	}
	if t := draft.Title(s.Final); t != "" {
		md.Title = t
	}
	if s.Research != nil {
		md.ResearchSummary = s.Research.Summary
	}
	if sr, ok := r.gen.(statsReporter); ok {
		after := sr.Stats()
		md.Gateway = types.GatewayStats{
			RemoteCalls: after.RemoteCalls - r.before.RemoteCalls,
			CacheHits:   after.CacheHits - r.before.CacheHits,
			Fallbacks:   after.Fallbacks - r.before.Fallbacks,
		}
	}
	return md
}

func (r *run) fail(logger *zap.Logger, phase types.Phase, err error) (Result, error) {
	fatal := &FatalError{Phase: phase, Err: err}
	logger.Error("pipeline failed", zap.String("phase", string(phase)), zap.Error(err))
	progress.Emit(r.events, types.ProgressEvent{Phase: types.PhaseFailed, Err: fatal.Error()})
	return Result{Phase: types.PhaseFailed, State: r.state, Metadata: r.meta}, fatal
}

// timed stamps each event with the time since the run started.
func (r *run) timed(obs progress.Observer) progress.Observer {
	if obs == nil {
		return nil
	}
	return progress.ObserverFunc(func(e types.ProgressEvent) {
		e.Elapsed = r.now().Sub(r.start)
		obs.Observe(e)
	})
}
