// Package scheduler drives the periodic invoice jobs: the overdue
// sweep and the due-date reminder pass it performs. A single scheduler
// instance holds a Redis leader lock so concurrent replicas do not
// race on the same batch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/invosync/invosync/internal/clock"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/pkg/telemetry"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	locker     *Locker
	metrics    *telemetry.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.InvoiceSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	err := fn(ctx)
	s.metrics.ObserveJobRun(name, time.Since(start), err)

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// A timed-out run picks up where it left off next tick.
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job. Job failures are joined so one
// job cannot mask another's error.
func (s *Scheduler) RunOnce(parent context.Context) error {
	if s.locker != nil {
		release, ok := s.locker.TryAcquire(parent, "scheduler:leader", s.cfg.RunInterval)
		if !ok {
			s.log.Debug("another instance holds the leader lock, skipping run")
			return nil
		}
		defer release()
	}

	var err error
	if s.isJobEnabled("overdue_sweep") {
		err = errors.Join(err, s.runJob(parent, "overdue_sweep", s.OverdueSweepJob))
	}
	return err
}

// OverdueSweepJob flips past-due invoices to overdue, appends the
// one-time late fee and counts due-tomorrow reminders.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	result, err := s.invoiceSvc.RunOverdueSweep(ctx)
	if err != nil {
		return err
	}

	for _, msg := range result.Errors {
		s.log.Error("sweep item failed", zap.String("detail", msg))
	}
	s.log.Info("overdue sweep",
		zap.Int("updated", result.UpdatedCount),
		zap.Int("notifications", result.NotificationCount),
	)
	if len(result.Errors) > 0 {
		return fmt.Errorf("overdue sweep: %d of the batch failed", len(result.Errors))
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty list enables every job.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
