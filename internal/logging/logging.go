// Package logging sets up the slog logger used across the application and
// a zerolog adapter for components that log through zerolog.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names the log file for a session started at sessionStart.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}
