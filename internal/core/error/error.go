package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// UpstreamErrorMessage describes backend or LLM transport failures.
	UpstreamErrorMessage = "upstream unavailable"
	// UpstreamTimeoutMessage describes an upstream call that hit its deadline.
	UpstreamTimeoutMessage = "upstream timed out"
)

var (
	// ErrQueryFailed signals that the backend returned no usable data for a query.
	// It drives the fallback path and is never a transport problem.
	ErrQueryFailed = errors.New("query failed")

	// ErrUpstreamUnavailable marks transport level failures talking to the
	// backend API or the LLM provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// QueryFailed returns an error matching ErrQueryFailed with a reason attached.
func QueryFailed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrQueryFailed, fmt.Sprintf(format, args...))
}

// WrapUpstream maps a transport error into an AppError matching ErrUpstreamUnavailable.
// Deadline overruns get a gateway timeout status.
func WrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Err:     fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err),
			Status:  http.StatusGatewayTimeout,
			Message: UpstreamTimeoutMessage,
		}
	}
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err),
		Status:  http.StatusBadGateway,
		Message: UpstreamErrorMessage,
	}
}

// UpstreamStatus reports a non-2xx backend response as an upstream failure.
func UpstreamStatus(endpoint string, status int) error {
	return &AppError{
		Err:     fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, endpoint, status),
		Status:  http.StatusBadGateway,
		Message: UpstreamErrorMessage,
	}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when none is attached.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
