// Package scheduler runs digest jobs on cron schedules. A Postgres
// advisory lock guards each job so overlapping ticks, or a second service
// replica, cannot double-run a digest.
package scheduler

import (
	"context"
	"hash/fnv"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Trigger starts one digest run. The pipeline runner satisfies this.
type Trigger interface {
	Run(ctx context.Context, variant domain.Variant) (*domain.DigestResult, error)
}

// LockManager provides cross-process run exclusion. database.DB satisfies
// this; a nil manager disables locking (single-process deployments).
type LockManager interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) error
}

// Scheduler triggers digest runs on per-variant cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	runner Trigger
	locks  LockManager
	logger zerolog.Logger
}

// New creates a scheduler. Panics inside scheduled jobs are recovered and
// logged rather than taking the process down.
func New(runner Trigger, locks LockManager, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		runner: runner,
		locks:  locks,
		logger: logger,
	}
}

// Register schedules a variant with a standard 5-field cron expression.
// An empty expression leaves the variant unscheduled.
func (s *Scheduler) Register(variant domain.Variant, spec string) error {
	return s.RegisterJob(string(variant), spec, func(ctx context.Context) error {
		_, err := s.runner.Run(ctx, variant)
		return err
	})
}

// RegisterJob schedules a named job with a standard 5-field cron
// expression. The job runs under an advisory lock derived from its name.
// An empty expression leaves the job unscheduled.
func (s *Scheduler) RegisterJob(name, spec string, job func(ctx context.Context) error) error {
	if spec == "" {
		s.logger.Info().Str("job", name).Msg("job has no schedule")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(context.Background(), name, job)
	})
	if err != nil {
		return domain.NewConfigError("scheduler",
			"invalid cron expression for job "+name+": "+err.Error())
	}

	s.logger.Info().Str("job", name).Str("cron", spec).Msg("job scheduled")
	return nil
}

// Start begins executing the registered schedules in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight runs to finish, or for the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runJob executes one scheduled job under its advisory lock.
func (s *Scheduler) runJob(ctx context.Context, name string, job func(ctx context.Context) error) {
	logger := s.logger.With().Str("job", name).Logger()

	if s.locks != nil {
		key := lockKey(name)
		acquired, err := s.locks.AcquireAdvisoryLock(ctx, key)
		if err != nil {
			logger.Error().Err(err).Msg("failed to acquire run lock")
			return
		}
		if !acquired {
			logger.Warn().Msg("previous run still holds the lock, skipping tick")
			return
		}
		defer func() {
			if err := s.locks.ReleaseAdvisoryLock(ctx, key); err != nil {
				logger.Error().Err(err).Msg("failed to release run lock")
			}
		}()
	}

	if err := job(ctx); err != nil {
		// Job internals log their own details; this records the tick outcome.
		logger.Error().Err(err).Msg("scheduled run failed")
	}
}

// lockKey derives a stable advisory lock key per job name.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("digest:" + name))
	return int64(h.Sum64())
}

// cronLogger adapts zerolog to the cron logging interface used by the
// recovery wrapper.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
