// Package pipeline orchestrates spoken-clip generation: cache lookup,
// script generation, speech synthesis, and cache insert, in that order.
// Providers are injected behind small interfaces; the cache is owned by
// the pipeline and closed with it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dgnsrekt/chime/internal/audio"
	"github.com/dgnsrekt/chime/internal/cache"
	"github.com/dgnsrekt/chime/internal/prompt"
)

// Statistics merges the generation counters with a fresh cache snapshot.
type Statistics struct {
	Generation        GenerationMetrics
	SuccessRate       float64
	AverageGeneration time.Duration
	Cache             cache.Statistics
}

// Pipeline drives the generate-and-cache flow. Safe for concurrent use:
// the cache serializes its own mutations and the counters are atomic.
type Pipeline struct {
	cfg     Config
	scripts ScriptGenerator
	speech  SpeechSynthesizer
	store   *cache.Manager
	log     *log.Logger
	metrics *Metrics
	status  *statusTracker

	now func() time.Time
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithCache injects a pre-built cache manager. The pipeline takes
// ownership and closes it on Close.
func WithCache(m *cache.Manager) Option {
	return func(p *Pipeline) { p.store = m }
}

// New builds a Pipeline from the config and the two providers. When no
// cache is injected one is opened from cfg.Cache.
func New(cfg Config, scripts ScriptGenerator, speech SpeechSynthesizer, opts ...Option) (*Pipeline, error) {
	if scripts == nil {
		return nil, errors.New("pipeline: script generator is required")
	}
	if speech == nil {
		return nil, errors.New("pipeline: speech synthesizer is required")
	}

	p := &Pipeline{
		scripts: scripts,
		speech:  speech,
		log:     log.New(io.Discard),
		metrics: &Metrics{},
		status:  newStatusTracker(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.store != nil && cfg.Cache.Dir == "" {
		cfg.Cache.Dir = p.store.Dir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p.cfg = cfg

	if p.store == nil {
		store, err := cache.New(cfg.Cache, cache.WithLogger(p.log.WithPrefix("cache")))
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		p.store = store
	}
	return p, nil
}

// Close releases the pipeline's resources, including the cache.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// GetOrGenerate returns the clip for the request, serving from the cache
// when a fresh artifact exists and running the full generation flow
// otherwise.
func (p *Pipeline) GetOrGenerate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	voice := p.cfg.VoiceFor(req.Tone)
	key := CacheKey(req, voice)

	if art, ok := p.store.Get(key); ok {
		p.metrics.RecordCacheHit()
		p.log.Debug("cache hit", "request", req.ID, "key", key)
		return &Result{
			AudioPath:   art.Path,
			Script:      art.Transcript,
			Duration:    art.Duration,
			Voice:       art.Voice,
			GeneratedAt: art.CreatedAt,
			FromCache:   true,
		}, nil
	}
	p.metrics.RecordCacheMiss()

	return p.generate(ctx, req, key, voice)
}

// generate runs the three stages in order. Any stage error aborts the
// rest, counts one failure, and surfaces through the failed status; there
// are no retries and partial products are discarded.
func (p *Pipeline) generate(ctx context.Context, req Request, key, voice string) (*Result, error) {
	job := uuid.NewString()
	start := p.now()
	p.metrics.RecordAttempt()

	p.publish(job, req.ID, StatusGeneratingScript, nil)
	raw, err := p.scripts.GenerateScript(ctx, req.Goal, req.Tone, req.Context)
	if err != nil {
		return nil, p.fail(job, req.ID, StageScript, ErrScriptGeneration, err)
	}
	script := prompt.CleanScript(raw)
	if script == "" {
		return nil, p.fail(job, req.ID, StageScript, ErrScriptGeneration, errors.New("generator returned an empty script"))
	}

	p.publish(job, req.ID, StatusSynthesizing, nil)
	clip, err := p.speech.Synthesize(ctx, script, voice, p.cfg.Synthesis)
	if err != nil {
		return nil, p.fail(job, req.ID, StageSynthesis, ErrSpeechSynthesis, err)
	}

	p.publish(job, req.ID, StatusCaching, nil)
	duration := audio.DurationOf(clip)
	path, err := p.store.Put(clip, key, cache.Meta{
		Voice:      voice,
		RequestID:  req.ID,
		Format:     p.cfg.Synthesis.Format,
		Quality:    p.cfg.Synthesis.Quality,
		Duration:   duration,
		Transcript: script,
	})
	if err != nil {
		return nil, p.fail(job, req.ID, StageCache, ErrStorage, err)
	}

	took := p.now().Sub(start)
	p.metrics.RecordSuccess(took)
	p.publish(job, req.ID, StatusCompleted, nil)
	p.log.Info("generated clip",
		"request", req.ID,
		"voice", voice,
		"bytes", len(clip),
		"duration", duration,
		"took", took)

	return &Result{
		AudioPath:   path,
		Script:      script,
		Duration:    duration,
		Voice:       voice,
		GeneratedAt: p.now(),
		FromCache:   false,
	}, nil
}

// PreGenerate warms the cache for a scheduled request. It only works when
// the request is in the future and within the configured horizon, and it
// never reports failure: a missed warmup just means generation happens at
// fire time instead.
func (p *Pipeline) PreGenerate(ctx context.Context, req Request) {
	lead, ok := p.withinHorizon(req)
	if !ok {
		p.log.Debug("pregeneration skipped", "request", req.ID, "lead", lead)
		return
	}
	if _, err := p.GetOrGenerate(ctx, req); err != nil {
		p.log.Warn("pregeneration failed", "request", req.ID, "err", err)
	}
}

// withinHorizon reports whether the request is scheduled in the future
// and close enough to be worth pre-generating.
func (p *Pipeline) withinHorizon(req Request) (time.Duration, bool) {
	lead := req.ScheduledFor.Sub(p.now())
	return lead, lead > 0 && lead <= p.cfg.PreGenerateHorizon
}

// ClearExpired runs cache maintenance: expired entries, size pressure,
// orphaned files, and stale references.
func (p *Pipeline) ClearExpired() error {
	return p.store.Maintain()
}

// Clear empties the cache and resets the generation counters. This is the
// only operation that resets metrics.
func (p *Pipeline) Clear() error {
	if err := p.store.Clear(); err != nil {
		return err
	}
	p.metrics.Reset()
	return nil
}

// Statistics returns the generation counters together with a fresh cache
// snapshot.
func (p *Pipeline) Statistics() Statistics {
	gen := p.metrics.Snapshot()
	return Statistics{
		Generation:        gen,
		SuccessRate:       gen.SuccessRate(),
		AverageGeneration: gen.AverageGenerationTime(),
		Cache:             p.store.Statistics(),
	}
}

// Status returns the most recent pipeline status update.
func (p *Pipeline) Status() Update {
	return p.status.get()
}

// Updates subscribes to status transitions. The returned cancel func must
// be called when done; slow subscribers miss updates rather than blocking
// generation.
func (p *Pipeline) Updates() (<-chan Update, func()) {
	return p.status.subscribe()
}

func (p *Pipeline) publish(job, requestID string, s Status, err error) {
	p.status.set(Update{
		Job:       job,
		RequestID: requestID,
		Status:    s,
		Err:       err,
		At:        p.now(),
	})
}

func (p *Pipeline) fail(job, requestID string, stage Stage, kind, cause error) error {
	p.metrics.RecordFailure()
	err := &Error{Stage: stage, Kind: kind, Err: cause}
	p.publish(job, requestID, StatusFailed, err)
	p.log.Error("generation failed", "request", requestID, "stage", stage, "err", cause)
	return err
}
