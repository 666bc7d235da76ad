package internal

import (
	"log"
	"os"
)

// LogLevel orders message severities; higher values are chattier.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Diagnostics go to stderr so command output stays pipeable. The default
// threshold is warn: errors and warnings only.
var (
	logLevel = LogLevelWarn
	logger   = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLogLevel replaces the global threshold.
func SetLogLevel(level LogLevel) {
	logLevel = level
}

// SetVerbose switches between the default warn threshold and full debug
// output. Wired to the root --verbose flag.
func SetVerbose(verbose bool) {
	if verbose {
		logLevel = LogLevelDebug
		return
	}
	logLevel = LogLevelWarn
}

func logf(level LogLevel, tag, format string, args ...any) {
	if level > logLevel {
		return
	}
	logger.Printf(tag+" "+format, args...)
}

// LogError reports failures that matter even at the quiet default level.
func LogError(format string, args ...any) {
	logf(LogLevelError, "[ERROR]", format, args...)
}

// LogWarn reports recoverable problems, like a best-effort call failing.
func LogWarn(format string, args ...any) {
	logf(LogLevelWarn, "[WARN]", format, args...)
}

// LogInfo reports routine progress; hidden unless verbose.
func LogInfo(format string, args ...any) {
	logf(LogLevelInfo, "[INFO]", format, args...)
}

// LogDebug reports request/response traces; hidden unless verbose.
func LogDebug(format string, args ...any) {
	logf(LogLevelDebug, "[DEBUG]", format, args...)
}
