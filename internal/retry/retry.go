package retry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// DefaultMaxRetries is the retry budget for write-type tool calls.
	DefaultMaxRetries = 2
	// DefaultBaseDelay is the base delay for incremental backoff.
	DefaultBaseDelay = 2 * time.Second
)

// Config holds retry configuration.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     io.Writer                                   // Where to write retry logs (nil for no logging)
	OnRetry    func(delay time.Duration, attempt, max int) // Optional callback for retry notifications
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// Result represents the outcome of an operation that can be retried.
type Result struct {
	Success bool
	Output  string
	Error   error
}

// Operation is a function that can be retried.
type Operation func() Result

// Execute runs an operation with retry logic. It retries on retryable
// errors with fixed incremental delay and returns the final result after
// all attempts.
func Execute(ctx context.Context, cfg Config, op Operation) Result {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	var lastResult Result

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastResult = op()

		if lastResult.Success {
			return lastResult
		}

		if !IsRetryable(lastResult.Error) {
			if cfg.Logger != nil {
				fmt.Fprintf(cfg.Logger, "Non-retryable error, stopping: %v\n", lastResult.Error)
			}
			return lastResult
		}

		if attempt >= cfg.MaxRetries {
			if cfg.Logger != nil {
				fmt.Fprintf(cfg.Logger, "All %d retry attempts exhausted\n", cfg.MaxRetries)
			}
			return lastResult
		}

		delay := CalculateDelay(cfg.BaseDelay, attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(delay, attempt+1, cfg.MaxRetries)
		} else if cfg.Logger != nil {
			fmt.Fprintf(cfg.Logger, "Retrying in %s... (attempt %d/%d)\n",
				delay, attempt+1, cfg.MaxRetries)
		}

		select {
		case <-ctx.Done():
			return Result{
				Success: false,
				Output:  lastResult.Output,
				Error:   ctx.Err(),
			}
		case <-time.After(delay):
		}
	}

	return lastResult
}

// CalculateDelay returns the delay for a given attempt using fixed
// incremental backoff: base, 2*base, 3*base, ...
func CalculateDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt+1)
}

// retryablePatterns contains error message patterns that indicate retryable
// errors, including the localized variants returned by document hosts.
var retryablePatterns = []string{
	"rate limit",
	"rate_limit",
	"timeout",
	"timed out",
	"deadline exceeded",
	"network",
	"connection refused",
	"connection reset",
	"temporary",
	"temporarily",
	"service unavailable",
	"busy",
	"throttl",
	"503",
	"502",
	"429",
	"overloaded",
	"too many requests",
	"超时",
	"网络",
	"繁忙",
	"限流",
	"稍后重试",
	"服务不可用",
	"暂时",
}

// nonRetryablePatterns contains error message patterns that indicate
// non-retryable errors.
var nonRetryablePatterns = []string{
	"syntax error",
	"invalid",
	"not found",
	"unauthorized",
	"forbidden",
	"authentication",
	"permission denied",
	"bad request",
	"400",
	"401",
	"403",
	"404",
	"参数错误",
	"无权限",
}

// IsRetryable determines if an error is retryable. Timeout, network,
// throttle and busy errors are; invalid input and auth errors are not.
// Unknown errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
