// Package engine polls table captures on a fixed interval and keeps the
// store and its subscribers up to date.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/omahareader/internal/capture"
	"github.com/lox/omahareader/internal/notify"
	"github.com/lox/omahareader/internal/store"
)

// DefaultInterval is the time between detection cycles.
const DefaultInterval = 10 * time.Second

// Engine drives detection cycles. Cycles run one at a time on the
// goroutine that called Run.
type Engine struct {
	source    capture.Source
	tracker   *capture.Tracker
	processor *Processor
	store     *store.Store
	notifier  *notify.Notifier
	clock     quartz.Clock
	interval  time.Duration
	logger    *log.Logger
}

func New(source capture.Source, processor *Processor, st *store.Store, notifier *notify.Notifier, clock quartz.Clock, interval time.Duration, logger *log.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{
		source:    source,
		tracker:   capture.NewTracker(),
		processor: processor,
		store:     st,
		notifier:  notifier,
		clock:     clock,
		interval:  interval,
		logger:    logger.WithPrefix("engine"),
	}
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled. Cancellation lets the in-flight cycle finish.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.interval, "engine", "poll")
	defer ticker.Stop()

	e.logger.Info("detection loop started", "interval", e.interval)
	for {
		if _, err := e.RunCycle(context.WithoutCancel(ctx)); err != nil {
			e.logger.Error("detection cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("detection loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle captures every window, processes the changed ones, drops the
// removed ones and notifies subscribers once if anything changed. Only a
// capture failure is returned; per-table failures are logged.
func (e *Engine) RunCycle(ctx context.Context) (bool, error) {
	windows, err := e.source.Capture(ctx)
	if err != nil {
		return false, fmt.Errorf("capture: %w", err)
	}
	if len(windows) == 0 {
		e.logger.Warn("no poker tables detected")
	}

	changes := e.tracker.Changes(windows)
	for _, w := range changes.Failed {
		e.logger.Warn("failed to capture table, keeping previous state", "table", w.TableID, "error", w.Err)
	}
	if changes.Empty() {
		e.logger.Debug("all windows unchanged", "windows", len(windows))
		return false, nil
	}

	if len(changes.Changed) > 0 {
		e.logger.Info("processing changed windows", "changed", len(changes.Changed), "total", len(windows))
	}
	for _, w := range changes.Changed {
		if err := e.process(ctx, w); err != nil {
			e.logger.Error("failed to process table", "table", w.TableID, "error", err)
		}
	}

	if len(changes.Removed) > 0 {
		e.logger.Info("removing closed tables", "tables", changes.Removed)
		e.store.Remove(changes.Removed...)
	}

	payload := e.store.NotificationPayload()
	e.notifier.Notify(payload)
	e.logger.Info("notified subscribers", "tables", len(payload.Tables), "subscribers", e.notifier.Count())
	return true, nil
}

func (e *Engine) process(ctx context.Context, w capture.Window) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.processor.Process(ctx, w)
}
