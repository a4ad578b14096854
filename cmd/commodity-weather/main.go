// Command commodity-weather loads monthly commodity prices and the daily
// weather forecast into a store and serves a price forecast dashboard API.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/i474232898/commodity-weather-forecast/internal/config"
	"github.com/i474232898/commodity-weather-forecast/internal/logging"
)

func main() {
	var cfg *config.AppConfig

	rootCmd := &cobra.Command{
		Use:           "commodity-weather",
		Short:         "Commodity price and weather pipeline with price forecasting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			return logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}

	rootCmd.AddCommand(
		newServeCmd(&cfg),
		newRunCmd(&cfg),
		newForecastCmd(&cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
