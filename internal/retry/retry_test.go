package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "timeout error",
			err:      errors.New("request timed out"),
			expected: true,
		},
		{
			name:     "throttle error",
			err:      errors.New("request throttled by upstream"),
			expected: true,
		},
		{
			name:     "service unavailable",
			err:      errors.New("503 service unavailable"),
			expected: true,
		},
		{
			name:     "busy host",
			err:      errors.New("document host busy, try again"),
			expected: true,
		},
		{
			name:     "localized timeout",
			err:      errors.New("请求超时"),
			expected: true,
		},
		{
			name:     "localized throttle",
			err:      errors.New("触发限流，请稍后重试"),
			expected: true,
		},
		{
			name:     "localized service down",
			err:      errors.New("服务不可用"),
			expected: true,
		},
		{
			name:     "invalid argument",
			err:      errors.New("invalid paragraph index"),
			expected: false,
		},
		{
			name:     "unauthorized",
			err:      errors.New("401 unauthorized"),
			expected: false,
		},
		{
			name:     "localized bad argument",
			err:      errors.New("参数错误"),
			expected: false,
		},
		{
			name:     "unknown error defaults to no retry",
			err:      errors.New("something odd happened"),
			expected: false,
		},
		{
			name:     "non-retryable wins over retryable",
			err:      errors.New("invalid request: network field missing"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCalculateDelayIsIncremental(t *testing.T) {
	base := 2 * time.Second
	for attempt, want := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second} {
		if got := CalculateDelay(base, attempt); got != want {
			t.Errorf("CalculateDelay(attempt=%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	calls := 0
	result := Execute(context.Background(), Config{MaxRetries: 2, BaseDelay: time.Millisecond}, func() Result {
		calls++
		return Result{Success: false, Error: errors.New("invalid input")}
	})
	if result.Success {
		t.Fatal("expected failure result")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	calls := 0
	retries := 0
	cfg := Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		OnRetry:    func(time.Duration, int, int) { retries++ },
	}
	result := Execute(context.Background(), cfg, func() Result {
		calls++
		if calls < 3 {
			return Result{Success: false, Error: errors.New("timeout")}
		}
		return Result{Success: true, Output: "ok"}
	})
	if !result.Success {
		t.Fatalf("expected success, got error %v", result.Error)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 retry notifications, got %d", retries)
	}
}

func TestExecuteExhaustsBudget(t *testing.T) {
	calls := 0
	result := Execute(context.Background(), Config{MaxRetries: 2, BaseDelay: time.Millisecond}, func() Result {
		calls++
		return Result{Success: false, Error: errors.New("connection reset")}
	})
	if result.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", calls)
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	result := Execute(ctx, Config{MaxRetries: 3, BaseDelay: time.Hour}, func() Result {
		calls++
		cancel()
		return Result{Success: false, Error: errors.New("timeout")}
	})
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Error)
	}
}
