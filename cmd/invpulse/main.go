package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "invpulse",
		Usage: "Inventory health from stock spreadsheets: low stock, overstock and pack-aware reorder quantities",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (console or json)",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			convertCommand(),
			driveCommand(),
			storageCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("invpulse failed")
	}
}

// setupLogging applies flags over the loaded configuration. Logs go to
// stderr so command output on stdout stays machine readable.
func setupLogging(c *cli.Context) error {
	cfg := config.Load()

	format := cfg.Log.Format
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}

	logger.Configure(os.Stderr, format)
	logger.SetLevel(level)
	return nil
}
