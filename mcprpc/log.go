// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

// LogLevel is the severity of a client-directed log message, using the
// syslog-derived names of the MCP logging capability.
type LogLevel string

const (
	LogDebug     LogLevel = "debug"
	LogInfo      LogLevel = "info"
	LogNotice    LogLevel = "notice"
	LogWarning   LogLevel = "warning"
	LogError     LogLevel = "error"
	LogCritical  LogLevel = "critical"
	LogAlert     LogLevel = "alert"
	LogEmergency LogLevel = "emergency"
)

// logLevelPriority returns a numeric priority for log levels (lower = less severe).
func logLevelPriority(level LogLevel) int {
	switch level {
	case LogDebug:
		return 0
	case LogInfo:
		return 1
	case LogNotice:
		return 2
	case LogWarning:
		return 3
	case LogError:
		return 4
	case LogCritical:
		return 5
	case LogAlert:
		return 6
	case LogEmergency:
		return 7
	default:
		return -1
	}
}

// validLogLevel reports whether level names a known severity.
func validLogLevel(level LogLevel) bool {
	return logLevelPriority(level) >= 0
}

// logMessageParams is the payload of a notifications/message envelope.
type logMessageParams struct {
	Level  LogLevel `json:"level"`
	Logger string   `json:"logger,omitempty"`
	Data   any      `json:"data"`
}
