package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
)

func fastConfig() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetry_Success(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "save", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetry_SuccessAfterBusy(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "save", func() error {
		calls++
		if calls < 3 {
			return NewStoreError("save", errors.New("database is locked"), ErrCodeBusy)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_NonRetryable(t *testing.T) {
	calls := 0
	want := NewStoreError("save", errors.New("bad row"), ErrCodeValidation)
	err := WithRetry(context.Background(), fastConfig(), "save", func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not retry, got %d calls", calls)
	}
}

func TestWithRetry_PlainErrorNotRetried(t *testing.T) {
	calls := 0
	_ = WithRetry(context.Background(), fastConfig(), "save", func() error {
		calls++
		return fmt.Errorf("plain")
	})
	if calls != 1 {
		t.Errorf("plain errors are not retried, got %d calls", calls)
	}
}

func TestWithRetry_Exhausted(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "save", func() error {
		calls++
		return NewStoreError("save", errors.New("locked"), ErrCodeBusy)
	})
	if err == nil || !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsBusy(err) {
		t.Error("last error should stay reachable through the wrap")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second

	err := WithRetry(ctx, cfg, "save", func() error {
		cancel()
		return NewStoreError("save", errors.New("locked"), ErrCodeBusy)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := &RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 35 * time.Millisecond, BackoffFactor: 2}

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 35 * time.Millisecond}
	for attempt, w := range want {
		if got := calculateDelay(attempt, cfg); got != w {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, got, w)
		}
	}
}

type recordingRetryLogger struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingRetryLogger) Printf(format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, fmt.Sprintf(format, v...))
}

func TestSetRetryLogger(t *testing.T) {
	rec := &recordingRetryLogger{}
	SetRetryLogger(rec)
	t.Cleanup(func() { SetRetryLogger(nil) })

	calls := 0
	_ = WithRetry(context.Background(), fastConfig(), "save_window_state", func() error {
		calls++
		if calls == 1 {
			return NewStoreError("save", errors.New("locked"), ErrCodeBusy)
		}
		return nil
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.messages) != 2 {
		t.Fatalf("expected retry + success messages, got %v", rec.messages)
	}
	if !strings.Contains(rec.messages[0], "save_window_state") {
		t.Errorf("retry message should name the operation: %q", rec.messages[0])
	}
}

func TestClassifySQLiteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrCodeBusy},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ErrCodeBusy},
		{"busy snapshot", sqlite3.Error{Code: sqlite3.ErrBusy, ExtendedCode: sqlite3.ErrBusySnapshot}, ErrCodeBusy},
		{"unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrCodeValidation},
		{"corrupt", sqlite3.Error{Code: sqlite3.ErrCorrupt}, ErrCodeCorruption},
		{"readonly", sqlite3.Error{Code: sqlite3.ErrReadonly}, ErrCodePermission},
		{"cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, ErrCodeConnection},
		{"full", sqlite3.Error{Code: sqlite3.ErrFull}, ErrCodeDiskSpace},
		{"schema", sqlite3.Error{Code: sqlite3.ErrSchema}, ErrCodeSchema},
		{"misuse", sqlite3.Error{Code: sqlite3.ErrMisuse}, ErrCodeInternal},
		{"wrapped", fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), ErrCodeBusy},
		{"not sqlite", errors.New("x"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySQLiteError(tt.err); got != tt.want {
				t.Errorf("classifySQLiteError() = %v, want %v", got, tt.want)
			}
		})
	}
}
