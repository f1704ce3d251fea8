package http

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/logging"
)

// ErrorType represents different classes of request outcome for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates a 2xx response
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeAuth indicates the session was rejected (401). Never retried.
	ErrorTypeAuth
	// ErrorTypeNetwork indicates transport failure (timeouts, refused, reset)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates a server-side failure that may pass on retry (429, 5xx)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates a client error or cancellation
	ErrorTypeFatal
)

// ClassifyResponse determines the outcome class of a round trip.
func ClassifyResponse(resp *nethttp.Response, err error) ErrorType {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrorTypeFatal
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return ErrorTypeNetwork
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return ErrorTypeNetwork
		}

		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "connection reset") ||
			strings.Contains(errStr, "connection refused") ||
			strings.Contains(errStr, "broken pipe") ||
			strings.Contains(errStr, "eof") ||
			strings.Contains(errStr, "timeout") {
			return ErrorTypeNetwork
		}
		return ErrorTypeFatal
	}

	if resp == nil {
		return ErrorTypeFatal
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ErrorTypeSuccess
	case resp.StatusCode == nethttp.StatusUnauthorized:
		return ErrorTypeAuth
	case resp.StatusCode == nethttp.StatusTooManyRequests:
		return ErrorTypeRetryable
	case resp.StatusCode == nethttp.StatusNotImplemented:
		return ErrorTypeFatal
	case resp.StatusCode >= 500:
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "Success"
	case ErrorTypeAuth:
		return "Auth"
	case ErrorTypeNetwork:
		return "Network"
	case ErrorTypeRetryable:
		return "Retryable"
	case ErrorTypeFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// CheckRetry is the retryablehttp policy: retry network and server errors,
// never a 401 or any other client error.
func CheckRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	switch ClassifyResponse(resp, err) {
	case ErrorTypeNetwork, ErrorTypeRetryable:
		return true, nil
	default:
		return false, nil
	}
}

// NewRetryingClient wraps base with retryablehttp. With maxRetries == 0 the
// wrapper makes exactly one attempt.
func NewRetryingClient(base *nethttp.Client, maxRetries int, logger *logging.Logger) *nethttp.Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > constants.MaxRetriesLimit {
		maxRetries = constants.MaxRetriesLimit
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = CheckRetry
	retryClient.Logger = &retryLogger{logger: logger}
	// Hand the final response back unchanged so callers can read the status
	// and body instead of a generic "giving up" error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error().Fields(keysAndValues).Msg(msg)
	}
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Per-attempt chatter stays out of the console
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Debug().Fields(keysAndValues).Msg(msg)
	}
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Warn().Fields(keysAndValues).Msg(msg)
	}
}
