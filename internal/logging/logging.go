// Package logging builds the logrus logger shared by the CLI and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Options select the console level and an optional log file.
type Options struct {
	Verbose bool
	File    string
	// Console defaults to os.Stderr.
	Console io.Writer
}

// New returns a logger writing to the console and, when a file is set, to
// that file as well. The console shows errors only unless verbose; the file
// always receives debug output. The returned func closes the file.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := logrus.ErrorLevel
	if opts.Verbose {
		consoleLevel = logrus.DebugLevel
	}
	logger.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(consoleLevel)})

	closeLog := func() error { return nil }
	file := strings.TrimSpace(opts.File)
	if file == "" {
		return logger, closeLog, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, closeLog, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, closeLog, fmt.Errorf("open log file: %w", err)
	}
	logger.AddHook(&writer.Hook{Writer: f, LogLevels: levelsUpTo(logrus.DebugLevel)})
	return logger, f.Close, nil
}

func levelsUpTo(limit logrus.Level) []logrus.Level {
	return lo.Filter(logrus.AllLevels, func(l logrus.Level, _ int) bool { return l <= limit })
}
