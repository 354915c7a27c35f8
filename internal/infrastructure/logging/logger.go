package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger interface for shell, plugin and store operations
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level is the minimum severity a DefaultLogger writes
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the token written into the "level" field
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration value (debug, info, warn, error) into a Level
func ParseLevel(value string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

// DefaultLogger writes one JSON object per line
type DefaultLogger struct {
	minLevel Level
	out      *log.Logger // nil means the standard logger
}

// NewDefaultLogger creates a logger that writes every level through the standard logger
func NewDefaultLogger() Logger {
	return &DefaultLogger{minLevel: LevelDebug}
}

// NewLogger creates a logger filtered at the given level name.
// Unknown names fall back to info.
func NewLogger(level string) Logger {
	lvl, _ := ParseLevel(level)
	return &DefaultLogger{minLevel: lvl}
}

// NewLoggerWithOutput creates a logger writing to w, used by tests and file logging
func NewLoggerWithOutput(w io.Writer, level Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &DefaultLogger{minLevel: level, out: log.New(w, "", 0)}
}

// logEntry represents a structured log entry
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

// fieldsToMap converts the variadic fields slice to a map
// Expected format: key1, value1, key2, value2, ...
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			// Odd number of fields, keep the dangling value under an index key
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			continue
		}

		key, ok := fields[i].(string)
		if !ok {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
			continue
		}

		// errors marshal to {} otherwise
		if err, isErr := fields[i+1].(error); isErr && err != nil {
			result[key] = err.Error()
			continue
		}
		result[key] = fields[i+1]
	}

	return result
}

func (l *DefaultLogger) println(line string) {
	if l.out != nil {
		l.out.Println(line)
		return
	}
	log.Println(line)
}

// logStructured logs a message with structured JSON format
func (l *DefaultLogger) logStructured(level Level, msg string, fields []interface{}) {
	if level < l.minLevel {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Fields:    fieldsToMap(fields),
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fallbackFields := fmt.Sprintf("%v", fields)
		entry.Fields = map[string]interface{}{
			"original_fields": fallbackFields,
			"marshal_error":   err.Error(),
		}

		if jsonBytes, err = json.Marshal(entry); err != nil {
			l.println(fmt.Sprintf("[%s] %s %s", level, msg, fallbackFields))
			return
		}
	}

	l.println(string(jsonBytes))
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logStructured(LevelDebug, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logStructured(LevelInfo, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logStructured(LevelWarn, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logStructured(LevelError, msg, fields)
}

// CodedError is the classified error shape produced by the errors package
// (declared here to avoid an import cycle)
type CodedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs an error with its classification when it carries one
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if err == nil {
		return
	}

	var fields []interface{}
	if coded, ok := err.(CodedError); ok {
		fields = []interface{}{
			"operation", operation,
			"error_code", coded.GetCode(),
			"retryable", coded.IsRetryable(),
			"timestamp", coded.GetTimestamp(),
		}
		for k, v := range coded.GetContext() {
			fields = append(fields, k, v)
		}
	} else {
		fields = []interface{}{
			"operation", operation,
			"error_type", fmt.Sprintf("%T", err),
		}
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Operation failed: %s", err.Error()), fields...)
}

// LogDiscarded records the failure of a best-effort call at DEBUG level.
// The error is not returned to the caller.
func LogDiscarded(logger Logger, err error, operation string, fields ...interface{}) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	all := append([]interface{}{"operation", operation, "error", err.Error()}, fields...)
	logger.Debug("Best-effort call failed, continuing", all...)
}

// LogOperation logs successful operations with their duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
