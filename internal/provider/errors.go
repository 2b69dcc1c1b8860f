package provider

import "errors"

// Adapter error kinds. Implementations wrap the provider's raw error with
// exactly one of these so callers can classify with errors.Is.
var (
	// ErrNotFound indicates the application or environment does not exist.
	// Fatal, never retried.
	ErrNotFound = errors.New("application or environment not found")

	// ErrUnauthorized indicates the caller's credentials were rejected.
	// Fatal, never retried.
	ErrUnauthorized = errors.New("not authorized")

	// ErrThrottled indicates the provider rate-limited the call.
	ErrThrottled = errors.New("request throttled by provider")

	// ErrTransient indicates a network failure or provider-side 5xx.
	ErrTransient = errors.New("transient provider error")
)

// Retryable reports whether the error is worth retrying with backoff
// within the current poll tick.
func Retryable(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrTransient)
}

// Fatal reports whether the error must abort monitoring immediately.
func Fatal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}
