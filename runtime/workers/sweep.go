//go:generate go run go.uber.org/mock/mockgen -source=sweep.go -destination=../../mocks/mock_sweeper.go -package=mocks
package workers

import (
	"batepapo/clock"
	"batepapo/contract"
	"batepapo/domain"
	"batepapo/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var _ contract.Worker = (*SweepWorker)(nil)

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) (domain.SweepReport, error)
}

// SweepWorker evicts inactive participants on a fixed interval,
// independently of request traffic. A cycle still running when the next
// tick fires makes that tick a no-op. Failed cycles are logged and retried
// on the next tick, they never stop the worker.
type SweepWorker struct {
	log          *slog.Logger
	sweeper      Sweeper
	clock        clock.Clock
	health       contract.HealthReporter
	interval     time.Duration
	timeout      time.Duration
	cycleTimeout time.Duration
	running      atomic.Bool
	wg           sync.WaitGroup
}

func NewSweepWorker(
	log *slog.Logger,
	sweeper Sweeper,
	clock clock.Clock,
	health contract.HealthReporter,
	interval, timeout, cycleTimeout time.Duration,
) *SweepWorker {
	return &SweepWorker{
		log:          log,
		sweeper:      sweeper,
		clock:        clock,
		health:       health,
		interval:     interval,
		timeout:      timeout,
		cycleTimeout: cycleTimeout,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info("Starting sweep worker", "interval", w.interval, "timeout", w.timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	// In-flight cycles use ctx and stop with it
	defer w.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			if !w.Trigger(ctx) {
				w.log.Warn("Previous sweep still running, skipping tick")
			}
		}
	}
}

// Trigger starts one sweep cycle in the background. It returns false when
// a cycle is already running.
func (w *SweepWorker) Trigger(ctx context.Context) bool {
	if !w.running.CompareAndSwap(false, true) {
		return false
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.running.Store(false)
		w.cycle(ctx)
	}()
	return true
}

// Wait blocks until the in-flight cycle, if any, is done.
func (w *SweepWorker) Wait() {
	w.wg.Wait()
}

func (w *SweepWorker) cycle(ctx context.Context) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
			w.log.Error("Sweep cycle panicked", "err", err)
		}
		w.report(err)
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, w.cycleTimeout)
	defer cancel()

	started := w.clock.Now()
	report, err := w.sweeper.Sweep(cycleCtx, started, w.timeout)
	if err != nil {
		w.log.Error("Sweep cycle failed", "err", err)
		return
	}
	if report.Failed > 0 {
		w.log.Warn("Sweep cycle had failed evictions", "failed", report.Failed)
	}
	w.log.Debug("Sweep cycle done",
		"scanned", report.Scanned,
		"evicted", len(report.Evicted),
		"duration", w.clock.Now().Sub(started))
}

func (w *SweepWorker) report(err error) {
	if w.health != nil {
		w.health.ReportSweep(err)
	}
}
