package testutils

import (
	"fmt"
	"sync"
)

// TestingT is a minimal interface that matches the methods we need from testing.T
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap safely converts a slice of alternating key-value pairs to a map.
// Malformed entries are reported through t and skipped.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	fieldsMap := make(map[string]any)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}

		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}

		fieldsMap[key] = fields[i+1]
	}

	return fieldsMap
}

// LogEntry is one call captured by RecordingLogger
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
}

// RecordingLogger captures log calls for assertions. It satisfies
// logging.Logger and is safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...interface{}) { r.record("DEBUG", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...interface{})  { r.record("INFO", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...interface{})  { r.record("WARN", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...interface{}) { r.record("ERROR", msg, fields) }

// Entries returns a copy of everything logged so far
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Find returns the first entry with the given level and message
func (r *RecordingLogger) Find(level, msg string) (LogEntry, bool) {
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

// Count returns how many entries were logged at level
func (r *RecordingLogger) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// RequireField fails t unless entry carries key with the expected value
func RequireField(t TestingT, entry LogEntry, key string, want any) {
	fields := FieldsToMap(t, entry.Fields)
	got, ok := fields[key]
	if !ok {
		t.Errorf("log %q: field %q missing in %v", entry.Message, key, fields)
		return
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("log %q: field %q = %v, want %v", entry.Message, key, got, want)
	}
}
