package worker

import (
	"context"
	"sync"
	"time"

	"golang-market-intel/internal/pipeline/collector"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/utils"

	"github.com/robfig/cron/v3"
)

// LoopFunc is one iteration of a polling worker. It returns how many items it
// handled; zero makes the worker back off for its idle delay.
type LoopFunc func(ctx context.Context) int

// Orchestrator runs the pipeline's long-lived goroutines: collector runners,
// the filter and analysis polling loops, and the cron-driven synthesis cycle.
type Orchestrator struct {
	cfg      *config.Config
	logger   *logger.Logger
	cron     *cron.Cron
	runners  []*collector.Runner
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg *config.Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   log,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Runners exposes the registered collector runners for the stats endpoint.
func (o *Orchestrator) Runners() []*collector.Runner {
	return o.runners
}

// RegisterCollector starts a collector runner when Start is called.
func (o *Orchestrator) RegisterCollector(ctx context.Context, r *collector.Runner) {
	o.runners = append(o.runners, r)
	o.wg.Add(1)
	utils.GoSafe(func() {
		defer o.wg.Done()
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-o.stopChan:
				cancel()
			case <-runCtx.Done():
			}
		}()
		r.Run(runCtx)
	})
}

// RegisterLoopHandler runs fn continuously with a per-iteration timeout,
// backing off for idleDelay whenever an iteration comes back empty.
func (o *Orchestrator) RegisterLoopHandler(ctx context.Context, fn LoopFunc, name string, timeout, idleDelay time.Duration) {
	o.logger.Info("Registering loop handler",
		logger.Field("name", name),
		logger.Field("timeout", timeout),
		logger.Field("idle_delay", idleDelay))
	o.wg.Add(1)
	utils.GoSafe(func() {
		defer o.wg.Done()
		for {
			select {
			case <-ctx.Done():
				o.logger.Info("Loop handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-o.stopChan:
				o.logger.Info("Loop handler stopping", logger.Field("name", name))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				handled := fn(ctxTimeout)
				cancel()
				if handled == 0 {
					select {
					case <-time.After(idleDelay):
					case <-ctx.Done():
					case <-o.stopChan:
					}
				}
			}
		}
	})
}

// RegisterCronHandler schedules fn on a standard 5-field cron expression.
func (o *Orchestrator) RegisterCronHandler(ctx context.Context, fn func(ctx context.Context), name, spec string, timeout time.Duration) error {
	o.logger.Info("Registering cron handler",
		logger.Field("name", name),
		logger.Field("spec", spec))
	_, err := o.cron.AddFunc(spec, func() {
		select {
		case <-ctx.Done():
			return
		case <-o.stopChan:
			return
		default:
		}
		ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		fn(ctxTimeout)
	})
	return err
}

// Start launches the cron scheduler. Loop and collector handlers are already
// running from their Register calls.
func (o *Orchestrator) Start() {
	o.cron.Start()
	o.logger.Info("Pipeline orchestrator started")
}

// Stop gracefully shuts down every handler and waits for them to drain.
func (o *Orchestrator) Stop() {
	close(o.stopChan)
	cronCtx := o.cron.Stop()
	<-cronCtx.Done()
	o.wg.Wait()
	o.logger.Info("Pipeline orchestrator stopped")
}
