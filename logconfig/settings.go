package logconfig

import (
	"fmt"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in tests and the shell (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigFromLevel picks one of the settings above by name:
// "debug", "info" or "production". Any other logrus level name
// keeps the info format at that level.
func ConfigFromLevel(level string) error {
	switch level {
	case "debug":
		ConfigDebugLogger()
	case "", "info":
		ConfigInfoLogger()
	case "production":
		ConfigProductionLogger()
	default:
		lvl, err := myLogger.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("unknown log level %q: %w", level, err)
		}
		ConfigInfoLogger()
		myLogger.SetLevel(lvl)
	}
	return nil
}
