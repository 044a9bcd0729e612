package apperror

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimited         = errors.New("rate limited")
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
	ErrPrimaryFetch        = errors.New("primary fetch failed")
	ErrStorage             = errors.New("storage failure")
)

// Kind lets callers branch on the failure class without type-testing.
type Kind int

const (
	KindNone Kind = iota
	KindRateLimited
	KindEndpointUnavailable
	KindPrimaryFetchFailed
	KindStorage
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindEndpointUnavailable:
		return "endpoint_unavailable"
	case KindPrimaryFetchFailed:
		return "primary_fetch_failed"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

type AppError struct {
	Err     error     // sentinel
	Message string    // human-readable message
	ResetAt time.Time // only set for ErrRateLimited
	Cause   error     // underlying error, if any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func RateLimited(resetAt time.Time) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: fmt.Sprintf("API rate limit exceeded, resets at %s", resetAt.UTC().Format(time.RFC3339)),
		ResetAt: resetAt,
	}
}

func EndpointUnavailable(endpoint string, cause error) *AppError {
	return &AppError{
		Err:     ErrEndpointUnavailable,
		Message: fmt.Sprintf("endpoint %s unavailable", endpoint),
		Cause:   cause,
	}
}

func PrimaryFetchFailed(reason string, cause error) *AppError {
	return &AppError{
		Err:     ErrPrimaryFetch,
		Message: reason,
		Cause:   cause,
	}
}

func StorageFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage %s failed", op),
		Cause:   cause,
	}
}

// IsRateLimited reports whether err carries a rate limit and its reset time.
func IsRateLimited(err error) (time.Time, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(appErr.Err, ErrRateLimited) {
		return appErr.ResetAt, true
	}
	return time.Time{}, false
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrPrimaryFetch):
		return KindPrimaryFetchFailed
	case errors.Is(err, ErrEndpointUnavailable):
		return KindEndpointUnavailable
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}
