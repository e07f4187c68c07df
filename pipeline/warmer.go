package pipeline

import (
	"context"
	"sync"
	"time"
)

// DefaultWarmWorkers bounds concurrent generations during a batch warmup.
// Provider rate limits do the real throttling; this just keeps a large
// schedule from opening dozens of simultaneous requests.
const DefaultWarmWorkers = 4

// WarmReport summarizes one Warm run.
type WarmReport struct {
	Requested int
	Warmed    int
	Skipped   int
	Failed    int
	Took      time.Duration
}

// Warm pre-generates a batch of scheduled requests with bounded
// concurrency. Requests outside the pre-generation horizon are counted as
// skipped, failures are counted but never abort the batch, and a canceled
// context skips whatever has not started yet.
func (p *Pipeline) Warm(ctx context.Context, reqs []Request, workers int) WarmReport {
	if workers <= 0 {
		workers = DefaultWarmWorkers
	}
	start := p.now()

	var (
		mu  sync.Mutex
		rep = WarmReport{Requested: len(reqs)}
		sem = make(chan struct{}, workers)
		wg  sync.WaitGroup
	)
	for _, req := range reqs {
		lead, ok := p.withinHorizon(req)
		if ctx.Err() != nil || !ok {
			p.log.Debug("warmup skipped", "request", req.ID, "lead", lead)
			mu.Lock()
			rep.Skipped++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(req Request) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := p.GetOrGenerate(ctx, req); err != nil {
				p.log.Warn("warmup failed", "request", req.ID, "err", err)
				mu.Lock()
				rep.Failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			rep.Warmed++
			mu.Unlock()
		}(req)
	}
	wg.Wait()

	rep.Took = p.now().Sub(start)
	return rep
}
