package pipeline

import (
	"sync/atomic"
	"time"
)

// Metrics counts generation outcomes for the life of the process. A cache
// hit is not an attempt: attempts only cover runs that reached the
// providers, so Attempts == Successes + Failures always holds.
type Metrics struct {
	attempts   atomic.Uint64
	successes  atomic.Uint64
	failures   atomic.Uint64
	cacheHits  atomic.Uint64
	cacheMiss  atomic.Uint64
	totalNanos atomic.Int64
}

func (m *Metrics) RecordAttempt()   { m.attempts.Add(1) }
func (m *Metrics) RecordFailure()   { m.failures.Add(1) }
func (m *Metrics) RecordCacheHit()  { m.cacheHits.Add(1) }
func (m *Metrics) RecordCacheMiss() { m.cacheMiss.Add(1) }

// RecordSuccess counts one finished generation and accumulates its wall
// time. Only successful runs contribute to the average.
func (m *Metrics) RecordSuccess(took time.Duration) {
	m.successes.Add(1)
	m.totalNanos.Add(int64(took))
}

func (m *Metrics) Reset() {
	m.attempts.Store(0)
	m.successes.Store(0)
	m.failures.Store(0)
	m.cacheHits.Store(0)
	m.cacheMiss.Store(0)
	m.totalNanos.Store(0)
}

// Snapshot returns a consistent-enough copy for display. Individual loads
// are atomic; the set is not, which is fine for statistics output.
func (m *Metrics) Snapshot() GenerationMetrics {
	return GenerationMetrics{
		Attempts:      m.attempts.Load(),
		Successes:     m.successes.Load(),
		Failures:      m.failures.Load(),
		CacheHits:     m.cacheHits.Load(),
		CacheMisses:   m.cacheMiss.Load(),
		TotalDuration: time.Duration(m.totalNanos.Load()),
	}
}

// GenerationMetrics is a point-in-time view of the pipeline counters.
type GenerationMetrics struct {
	Attempts      uint64
	Successes     uint64
	Failures      uint64
	CacheHits     uint64
	CacheMisses   uint64
	TotalDuration time.Duration
}

// SuccessRate is successes over attempts, zero when nothing ran yet.
func (g GenerationMetrics) SuccessRate() float64 {
	if g.Attempts == 0 {
		return 0
	}
	return float64(g.Successes) / float64(g.Attempts)
}

// AverageGenerationTime is the mean wall time of successful runs.
func (g GenerationMetrics) AverageGenerationTime() time.Duration {
	if g.Successes == 0 {
		return 0
	}
	return time.Duration(int64(g.TotalDuration) / int64(g.Successes))
}
