package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

const (
	defaultTick = time.Minute
)

// Sweeper runs one daily job over every character.
type Sweeper interface {
	Sweep(ctx context.Context, job, day string) (survival.SweepReport, error)
}

// Worker runs the daily survival jobs once per calendar day. Several workers
// may run side by side; the Locker lets only one of them claim each job.
type Worker struct {
	id        string
	sweeper   Sweeper
	locker    storage.Locker
	jobs      []string
	loc       *time.Location
	sweepHour int
	tick      time.Duration
	now       func() time.Time
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new worker instance
func New(sweeper Sweeper, locker storage.Locker, loc *time.Location, sweepHour int, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Worker{
		id:        workerID,
		sweeper:   sweeper,
		locker:    locker,
		jobs:      survival.Jobs,
		loc:       loc,
		sweepHour: sweepHour,
		tick:      defaultTick,
		now:       time.Now,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WithClock replaces the time source and polling interval.
func (w *Worker) WithClock(now func() time.Time, tick time.Duration) *Worker {
	w.now = now
	if tick > 0 {
		w.tick = tick
	}
	return w
}

// Start polls until Stop is called, running due jobs on every tick.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id, "sweep_hour", w.sweepHour, "timezone", w.loc.String())

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		if _, err := w.RunDue(w.ctx); err != nil {
			w.log.Error("Error running daily jobs", "error", err, "worker_id", w.id)
		}
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		case <-ticker.C:
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// RunDue claims and runs every job not yet run today, once the sweep hour
// has passed. It returns the reports of the jobs this worker ran.
func (w *Worker) RunDue(ctx context.Context) ([]survival.SweepReport, error) {
	now := w.now().In(w.loc)
	if now.Hour() < w.sweepHour {
		return nil, nil
	}
	day := state.Day(now, w.loc)

	var reports []survival.SweepReport
	for _, job := range w.jobs {
		claimed, err := w.locker.ClaimDay(ctx, job, day)
		if err != nil {
			return reports, fmt.Errorf("failed to claim %s: %w", job, err)
		}
		if !claimed {
			continue
		}

		start := time.Now()
		rep, err := w.sweeper.Sweep(ctx, job, day)
		if err != nil {
			return reports, fmt.Errorf("sweep %s: %w", job, err)
		}
		w.log.Info("Daily job completed",
			"worker_id", w.id,
			"job", job,
			"day", day,
			"changed", rep.Changed,
			"failures", rep.Failures,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		reports = append(reports, rep)
	}
	return reports, nil
}
