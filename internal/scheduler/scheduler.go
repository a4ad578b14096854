package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/commodity-weather-forecast/internal/pipeline"
	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// Runner executes one named pipeline task.
type Runner interface {
	Run(ctx context.Context, task string) (pipeline.Report, error)
}

// Policy is the retry policy applied to each task independently.
type Policy struct {
	Retries    int
	RetryDelay time.Duration
}

// Scheduler periodically runs the pipeline tasks in order.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	tasks     []string
	cron      string
	policy    Policy
}

// New creates a new Scheduler. Tasks run in the given order each tick.
func New(cron string, policy Policy, runner Runner, tasks ...string) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if len(tasks) == 0 {
		tasks = []string{pipeline.TaskPrices, pipeline.TaskWeather}
	}
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		tasks:     tasks,
		cron:      cron,
		policy:    policy,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cron).Do(func() {
		log.Info().Str("cron", s.cron).Msg("scheduler: running pipeline job")
		if err := s.RunOnce(context.Background()); err != nil {
			log.Error().Err(err).Msg("scheduler: pipeline job finished with failures")
			return
		}
		log.Info().Msg("scheduler: completed pipeline job")
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.cron, err)
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce runs every task once in order. A task that still fails after
// its retries does not stop later tasks; the first failure is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var firstErr error
	for _, task := range s.tasks {
		if err := s.runWithRetry(ctx, task); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Scheduler) runWithRetry(ctx context.Context, task string) error {
	var err error
	for attempt := 0; attempt <= s.policy.Retries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(err).Str("task", task).Int("attempt", attempt).
				Dur("delay", s.policy.RetryDelay).Msg("scheduler: retrying task")

			timer := time.NewTimer(s.policy.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if _, err = s.runner.Run(ctx, task); err == nil {
			return nil
		}
		if permanent(err) {
			log.Error().Err(err).Str("task", task).Msg("scheduler: task failed on source data; not retrying")
			break
		}
	}
	return fmt.Errorf("task %s: %w", task, err)
}

// permanent reports errors caused by the source data itself. Retrying
// them would fetch the same data and fail the same way.
func permanent(err error) bool {
	return errors.Is(err, series.ErrNotFound) ||
		errors.Is(err, series.ErrFormat) ||
		errors.Is(err, series.ErrShape) ||
		errors.Is(err, series.ErrAmbiguous)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
