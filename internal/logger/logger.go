// Package logger builds the logrus loggers used across the pipeline.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures a base logger.
type Options struct {
	Level       string
	Environment string
	// Output defaults to stdout.
	Output io.Writer
}

// New builds a logger from opts. Production logs are JSON; everything else
// is colored text. An unknown level falls back to info with a warning.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	logger.SetOutput(opts.Output)

	if opts.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   opts.Output == os.Stdout,
		})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		logger.WithField("requested_level", opts.Level).Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
