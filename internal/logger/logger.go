package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/config"
)

// New builds the application logger from the log section of cfg.
// Production always logs JSON.
func New(cfg *config.Config) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New writing to out
func NewWithOutput(cfg *config.Config, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)

	switch {
	case cfg.Env == "production", cfg.Log.Format == "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case cfg.Log.Format == "text", cfg.Log.Format == "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q, use json or text", cfg.Log.Format)
	}

	return log, nil
}
