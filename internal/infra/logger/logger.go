package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger from cfg. Logs go to stderr,
// stdout is left to command output.
func Setup(cfg *config.Config) error {
	return Configure(logrus.StandardLogger(), os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

func Configure(l *logrus.Logger, out io.Writer, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	l.SetOutput(out)
	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
