package collector

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/internal/pipeline/queue"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/ratelimit"

	"github.com/patrickmn/go-cache"
)

// RunnerConfig holds per-collector runtime settings.
type RunnerConfig struct {
	// Interval is the sleep between scrape cycles.
	Interval time.Duration
	// SeenTTL bounds how long a post id stays in the short-lived seen set.
	SeenTTL time.Duration
	// ScrapeTimeout caps one scrape call.
	ScrapeTimeout time.Duration
	// Limiter gates outbound fetches. Optional.
	Limiter *ratelimit.SlidingWindowLimiter
}

// RunnerStats is a snapshot of one collector loop's counters.
type RunnerStats struct {
	Platform string `json:"platform"`
	Dormant  bool   `json:"dormant"`
	Cycles   int64  `json:"cycles"`
	Errors   int64  `json:"errors"`
	Pushed   int64  `json:"pushed"`
	Deduped  int64  `json:"deduped"`
}

// Runner drives one collector through the shared scrape, dedup, push, sleep
// loop. Each runner is an isolated failure domain: an error or panic in a
// cycle is counted and logged but never stops the loop or touches siblings.
type Runner struct {
	collector Collector
	queue     queue.Queue
	logger    *logger.Logger
	cfg       RunnerConfig
	seen      *cache.Cache

	dormant       bool
	dormantReason string

	cycles  atomic.Int64
	errors  atomic.Int64
	pushed  atomic.Int64
	deduped atomic.Int64
}

// NewRunner creates a runner for one collector.
func NewRunner(c Collector, q queue.Queue, log *logger.Logger, cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.SeenTTL <= 0 {
		cfg.SeenTTL = time.Hour
	}
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 2 * time.Minute
	}
	return &Runner{
		collector: c,
		queue:     q,
		logger:    log,
		cfg:       cfg,
		seen:      cache.New(cfg.SeenTTL, cfg.SeenTTL*2),
	}
}

// MarkDormant flags the runner as disabled (e.g. missing credentials). Run
// becomes a no-op but the runner stays registered for stats.
func (r *Runner) MarkDormant(reason string) {
	r.dormant = true
	r.dormantReason = reason
}

// Platform returns the wrapped collector's platform id.
func (r *Runner) Platform() string {
	return r.collector.Platform()
}

// Stats returns the runner's current counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Platform: r.collector.Platform(),
		Dormant:  r.dormant,
		Cycles:   r.cycles.Load(),
		Errors:   r.errors.Load(),
		Pushed:   r.pushed.Load(),
		Deduped:  r.deduped.Load(),
	}
}

// Run executes the collector loop until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	platform := r.collector.Platform()
	if r.dormant {
		r.logger.Warn("Collector dormant, loop not started",
			logger.StringField("platform", platform),
			logger.StringField("reason", r.dormantReason),
		)
		return
	}

	r.logger.Info("Collector loop started",
		logger.StringField("platform", platform),
		logger.DurationField("interval", r.cfg.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Collector loop stopping", logger.StringField("platform", platform))
			return
		default:
		}

		r.runCycle(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("Collector loop stopping", logger.StringField("platform", platform))
			return
		case <-time.After(r.cfg.Interval):
		}
	}
}

// runCycle performs one scrape, dedup, push pass. Panics are contained here so
// a bad cycle cannot take the loop down.
func (r *Runner) runCycle(ctx context.Context) {
	platform := r.collector.Platform()
	defer func() {
		if rec := recover(); rec != nil {
			r.errors.Add(1)
			r.logger.Error("Collector cycle panicked",
				logger.StringField("platform", platform),
				logger.Field("panic", rec),
				logger.StringField("stack", string(debug.Stack())),
			)
		}
	}()
	r.cycles.Add(1)

	if r.cfg.Limiter != nil {
		if err := r.cfg.Limiter.Wait(ctx); err != nil {
			return
		}
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, r.cfg.ScrapeTimeout)
	defer cancel()

	posts, err := r.collector.Scrape(scrapeCtx)
	if err != nil {
		r.errors.Add(1)
		r.logger.Error("Scrape failed",
			logger.StringField("platform", platform),
			logger.ErrorField(err),
		)
		return
	}

	fresh := r.dedup(posts)
	if len(fresh) == 0 {
		return
	}

	accepted, err := r.queue.Push(ctx, fresh)
	if err != nil {
		r.errors.Add(1)
		r.logger.Error("Queue push failed",
			logger.StringField("platform", platform),
			logger.ErrorField(err),
		)
		return
	}
	r.pushed.Add(int64(accepted))

	r.logger.Info("Collector cycle complete",
		logger.StringField("platform", platform),
		logger.IntField("scraped", len(posts)),
		logger.IntField("pushed", accepted),
	)
}

// dedup drops posts whose id is already in the TTL-bounded seen set.
func (r *Runner) dedup(posts []dto.QueuedPost) []dto.QueuedPost {
	fresh := make([]dto.QueuedPost, 0, len(posts))
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		if _, found := r.seen.Get(post.ID); found {
			r.deduped.Add(1)
			continue
		}
		r.seen.Set(post.ID, struct{}{}, cache.DefaultExpiration)
		fresh = append(fresh, post)
	}
	return fresh
}
