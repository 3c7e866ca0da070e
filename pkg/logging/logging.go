package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logFile *os.File

// Init configures the process-wide logger. When logFilePath is non-empty the
// logger writes there instead of stderr, which keeps tool output on SSE
// connections clean.
func Init(level string, logFilePath string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	log.SetLevel(lvl)
	log.SetTimeFormat(time.Kitchen)
	log.SetReportCaller(lvl == log.DebugLevel)

	if logFilePath != "" {
		logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
		}
		log.SetOutput(logFile)
	}

	return nil
}

// Close closes the log file if one was opened by Init.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
