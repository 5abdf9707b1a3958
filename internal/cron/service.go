package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the sweep loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     SweepLock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered sweep once per interval while holding the sweep lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     SweepLock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("sweep lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry, _ = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"sweep_jobs":     s.registry.Names(),
		"sweep_interval": s.interval.String(),
	})
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sweep loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "sweep cycle finished with failures", err)
	}
}

// runCycle runs every sweep even when an earlier one fails and returns the combined
// failures.
func (s *Service) runCycle(ctx context.Context) (err error) {
	ctx = s.logg.WithField(ctx, "sweep_run_id", uuid.NewString())

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !locked {
		holder, holderErr := s.lock.Holder(ctx)
		if holderErr != nil {
			holder = "unknown"
		}
		s.logg.Info(s.logg.WithField(ctx, "sweep_lock_holder", holder), "sweep skipped; another worker holds the lock")
		return nil
	}
	defer func() {
		relErr := s.lock.Release(ctx)
		if errors.Is(relErr, ErrSweepLockLost) {
			s.logg.Warn(ctx, "sweep outlasted the lock ttl")
			return
		}
		err = multierr.Append(err, relErr)
	}()

	s.logg.Info(ctx, "sweep starting")
	for _, job := range s.registry.Jobs() {
		err = multierr.Append(err, s.runJob(ctx, job))
	}
	s.logg.Info(s.logg.WithField(ctx, "sweep_failures", len(multierr.Errors(err))), "sweep complete")
	return err
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"sweep_job": name,
		"event":     "cron.sweep",
	})
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	if s.metrics != nil {
		s.metrics.ObserveDuration(name, duration)
	}
	if err != nil {
		s.logg.Error(jobCtx, "sweep job failed", err)
		if s.metrics != nil {
			s.metrics.IncFailure(name)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logg.Info(jobCtx, "sweep job completed")
	if s.metrics != nil {
		s.metrics.IncSuccess(name)
	}
	return nil
}
