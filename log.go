package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// setupLog routes diagnostics to CHIME_LOGFILE when set, otherwise to stderr
// at a quiet level. The returned closer flushes the log file, if any.
func setupLog() (func() error, error) {
	if logFile := os.Getenv("CHIME_LOGFILE"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("error setting up log file: %w", err)
		}
		log.SetDefault(log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		}))
		return f.Close, nil
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	return func() error { return nil }, nil
}
