// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import "log/slog"

// LogLevel represents the severity of a client-directed log message on the
// engine transport.
type LogLevel string

const (
	// LogException is the most severe level, carried by the batch that
	// terminates a failed call.
	LogException LogLevel = "EXCEPTION"
	// LogError indicates a recoverable error condition on the remote side.
	LogError LogLevel = "ERROR"
	// LogWarn indicates a warning that may require attention.
	LogWarn LogLevel = "WARN"
	// LogInfo indicates a normal informational message.
	LogInfo LogLevel = "INFO"
	// LogDebug indicates a verbose diagnostic message.
	LogDebug LogLevel = "DEBUG"
	// LogTrace is the least severe level, used for fine-grained tracing.
	LogTrace LogLevel = "TRACE"
)

// logLevelPriority returns a numeric priority for log levels (lower = more severe).
func logLevelPriority(level LogLevel) int {
	switch level {
	case LogException:
		return 0
	case LogError:
		return 1
	case LogWarn:
		return 2
	case LogInfo:
		return 3
	case LogDebug:
		return 4
	case LogTrace:
		return 5
	default:
		return 6
	}
}

// slogLevel maps a wire log level onto the slog scale so engine-directed
// log batches can be relayed to the process logger.
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogException, LogError:
		return slog.LevelError
	case LogWarn:
		return slog.LevelWarn
	case LogInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// LogMessage is one client-directed log record received from the engine.
type LogMessage struct {
	Level   LogLevel
	Message string
	Extras  map[string]string
}
