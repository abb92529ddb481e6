// Package readiness backs GET /v1/readyz with a cached probe instead of
// hitting the storage backend synchronously on every request.
//
// Grounded on the teacher's coordinator.HealthMonitor: a ticker-driven
// background goroutine that refreshes a mutex-protected cache, here
// repurposed from "poll N cluster nodes" to "poll my one configured
// adapter".
package readiness

import (
	"context"
	"sync"
	"time"

	"github.com/dreamware/kvsync/internal/storage"
)

// Result is the cached outcome of the most recent probe.
type Result struct {
	OK        bool
	Details   string
	CheckedAt time.Time
}

// Prober periodically calls a backend's Health method and caches the
// result for Ready to serve without blocking on the backend.
type Prober struct {
	healthFn func(ctx context.Context) storage.Health
	interval time.Duration
	staleAge time.Duration

	mu   sync.RWMutex
	last Result

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Prober that calls healthFn every interval. staleAge
// bounds how old a cached result may be before Ready falls back to a
// synchronous call instead of trusting the cache.
func New(healthFn func(ctx context.Context) storage.Health, interval, staleAge time.Duration) *Prober {
	return &Prober{healthFn: healthFn, interval: interval, staleAge: staleAge}
}

// Start begins the background polling loop. It performs one check
// immediately so Ready has a value before the first tick elapses.
func (p *Prober) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.check(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit.
func (p *Prober) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Prober) check(ctx context.Context) {
	h := p.healthFn(ctx)
	p.mu.Lock()
	p.last = Result{OK: h.OK, Details: h.Details, CheckedAt: time.Now()}
	p.mu.Unlock()
}

// Ready returns the cached probe result. If the cache is older than
// staleAge (e.g. the background loop hasn't been started, or is
// falling behind), it calls the backend synchronously instead of
// serving a stale answer.
func (p *Prober) Ready(ctx context.Context) Result {
	p.mu.RLock()
	last := p.last
	p.mu.RUnlock()

	if !last.CheckedAt.IsZero() && time.Since(last.CheckedAt) <= p.staleAge {
		return last
	}

	p.check(ctx)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
