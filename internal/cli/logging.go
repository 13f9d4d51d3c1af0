package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogEnv selects the log level: DEBUG, INFO, WARN or ERROR.
const LogEnv = "VIDEOCHECK_LOG"

// Logger is the global logger instance
var Logger = slog.Default()

// InitLogging initializes the logger with the appropriate level based on environment
func InitLogging() {
	initLogging(os.Stderr)
}

func initLogging(w io.Writer) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(os.Getenv(LogEnv)))

	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	// Replace the default logger
	slog.SetDefault(Logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		// Default to INFO if not set or unrecognized
		return slog.LevelInfo
	}
}
