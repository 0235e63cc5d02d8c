package ethereum

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

type ErrorClass string

const (
	ClassTerminal  ErrorClass = "terminal"
	ClassTransient ErrorClass = "transient"
)

type Decision struct {
	Class  ErrorClass
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

// Classify decides whether an RPC error is worth retrying. Timeouts, network
// failures and server-side errors are transient; everything else is terminal.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}
	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Decision{Class: ClassTransient, Reason: "net_timeout"}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Decision{Class: ClassTransient, Reason: "net_op_error"}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError {
			return Decision{Class: ClassTransient, Reason: "http_server_error"}
		}
		return Decision{Class: ClassTerminal, Reason: "http_client_error"}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return classifyJSONRPCCode(rpcErr.ErrorCode())
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "message_terminal"}
	}
	if containsAny(lower, transientMessageTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}
	return Decision{Class: ClassTerminal, Reason: "unknown_terminal_default"}
}

func classifyJSONRPCCode(code int) Decision {
	if code == -32603 || code == -32005 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_transient"}
	}
	if code <= -32000 && code >= -32099 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_range"}
	}
	return Decision{Class: ClassTerminal, Reason: "jsonrpc_terminal"}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"eof",
	"too many requests",
	"rate limit",
	"server error",
	"bad gateway",
}

var terminalMessageTokens = []string{
	"invalid argument",
	"invalid params",
	"method not found",
	"parse error",
	"execution reverted",
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Exponential doubles BaseDelay after every failed attempt.
	Exponential bool
	// RetryAll retries every error except cancellation, regardless of class.
	RetryAll bool
}

var (
	// DefaultHeadRetryPolicy waits 750ms then 1500ms between its three attempts.
	DefaultHeadRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 750 * time.Millisecond, Exponential: true}

	// DefaultLogsRetryPolicy allows a single retry after a fixed 500ms.
	DefaultLogsRetryPolicy = RetryPolicy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, RetryAll: true}
)

// Delay returns the wait after the given zero-based failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}
	return p.BaseDelay * time.Duration(1<<attempt)
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.RetryAll {
		return true
	}
	return Classify(err).IsTransient()
}

type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func withRetry[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleep Sleeper,
	logger *zap.Logger,
	operation string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	attempts := max(policy.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts-1 || !policy.shouldRetry(err) {
			break
		}

		delay := policy.Delay(attempt)
		logger.Sugar().Warnw("RPC call failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("maxAttempts", attempts),
			zap.Duration("delay", delay),
			zap.String("class", string(Classify(err).Class)),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}
