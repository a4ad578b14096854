package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/commodity-weather-forecast/internal/api/http"
	"github.com/i474232898/commodity-weather-forecast/internal/config"
	"github.com/i474232898/commodity-weather-forecast/internal/pipeline"
	"github.com/i474232898/commodity-weather-forecast/internal/scheduler"
)

func newServeCmd(cfg **config.AppConfig) *cobra.Command {
	var runAtStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			a, err := build(c)
			if err != nil {
				return err
			}
			defer a.store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Scheduler that periodically fetches and stores data.
			sched := scheduler.New(c.Schedule, scheduler.Policy{
				Retries:    c.TaskRetries,
				RetryDelay: c.TaskRetryDelay,
			}, a.pipeline)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer sched.Stop()

			if runAtStart {
				go func() {
					if err := sched.RunOnce(ctx); err != nil {
						log.Error().Err(err).Msg("initial pipeline run failed")
					}
				}()
			}

			server := httpapi.NewApp(httpapi.Deps{
				Store:          a.store,
				Forecaster:     a.forecast,
				Runner:         a.pipeline,
				DefaultHorizon: c.ForecastHorizon,
			}, a.metrics.Handler())

			go func() {
				if err := server.Listen(":" + c.Port); err != nil {
					log.Error().Err(err).Msg("fiber server stopped")
				}
			}()
			log.Info().Str("port", c.Port).Str("schedule", c.Schedule).Msg("serving")

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&runAtStart, "run-at-start", false, "Run the pipeline once immediately")
	return cmd
}

func newRunCmd(cfg **config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:       "run [prices|weather|all]...",
		Short:     "Run pipeline tasks once, in order, with the configured retry policy",
		ValidArgs: []string{pipeline.TaskPrices, pipeline.TaskWeather, "all"},
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			a, err := build(c)
			if err != nil {
				return err
			}
			defer a.store.Close()

			var tasks []string
			for _, arg := range args {
				if arg == "all" {
					tasks = append(tasks, pipeline.TaskPrices, pipeline.TaskWeather)
					continue
				}
				tasks = append(tasks, arg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(c.Schedule, scheduler.Policy{
				Retries:    c.TaskRetries,
				RetryDelay: c.TaskRetryDelay,
			}, a.pipeline, tasks...)
			return sched.RunOnce(ctx)
		},
	}
}

func newForecastCmd(cfg **config.AppConfig) *cobra.Command {
	var (
		horizon    int
		onlyFuture bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the price forecast as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			a, err := build(c)
			if err != nil {
				return err
			}
			defer a.store.Close()

			if !cmd.Flags().Changed("horizon") {
				horizon = c.ForecastHorizon
			}
			res, err := a.forecast.Forecast(cmd.Context(), horizon)
			if err != nil {
				return err
			}

			points := res.Points
			if onlyFuture {
				points = res.Future()
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 90, "Periods to forecast past the last observation")
	cmd.Flags().BoolVar(&onlyFuture, "only-future", false, "Omit fitted historical points")
	return cmd
}
