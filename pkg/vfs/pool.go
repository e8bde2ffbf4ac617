package vfs

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Logger is the minimal structured-logging surface Pool needs. Any logger
// with these four methods satisfies it, including the root package's Logger.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Pool is the bounded worker pool backing the compressed VFS's page
// compression/decompression, sized by NewPool's threads argument (§4.7, §5 "bounded
// worker pool... invisible to callers except through latency and memory").
// A semaphore caps concurrency; a rate.Limiter smooths bursts of writes so
// they cannot starve foreground reads sharing the same pool.
type Pool struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     Logger
	metrics *metrics
}

// NewPool builds a Pool with the given concurrency budget. burstPerSec of 0
// disables rate shaping (unlimited, subject only to the semaphore).
func NewPool(threads int, burstPerSec float64, log Logger) *Pool {
	if threads < 1 {
		threads = 1
	}
	if log == nil {
		log = nopLogger{}
	}
	var limiter *rate.Limiter
	if burstPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(burstPerSec), threads)
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(threads)),
		limiter: limiter,
		log:     log,
		metrics: newMetrics(),
	}
}

// Run executes fn on the pool, blocking until a worker slot and (if
// rate-shaped) a token are available. It runs fn on the calling goroutine
// once admitted and returns fn's error, for compression on the write path
// and decompression on the read path alike. Run is RunContext with
// context.Background.
func (p *Pool) Run(fn func() error) error {
	return p.RunContext(context.Background(), fn)
}

// RunContext is Run with an explicit context for cancellation (§5
// "Cancellation... the probe and prepared subquery both honor interrupts";
// the worker pool follows the same policy).
func (p *Pool) RunContext(ctx context.Context, fn func() error) error {
	start := time.Now()
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.metrics.waitSeconds.Observe(time.Since(start).Seconds())
	p.metrics.tasksInFlight.Inc()
	defer func() {
		p.metrics.tasksInFlight.Dec()
		p.sem.Release(1)
	}()
	err := fn()
	p.metrics.tasksRun.Inc()
	return err
}

// RunAll fans fn out over items with the pool's concurrency budget,
// returning the first error encountered (if any), via errgroup.
func (p *Pool) RunAll(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return p.RunContext(gctx, func() error { return fn(i) })
		})
	}
	return g.Wait()
}
