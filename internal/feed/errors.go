package feed

import "errors"

// ErrUnauthorized is returned when the backend rejects the credential. The
// credential has already been cleared by the time a caller sees it.
var ErrUnauthorized = errors.New("authentication failed, please login again")

// ErrNotConfigured is returned by operations whose backing component was not set up.
var ErrNotConfigured = errors.New("not configured")

// IsRetryable reports whether err is a transient failure worth retrying.
// Errors opt in by implementing Retryable() bool; everything else, including
// ErrUnauthorized, is terminal.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return false
	}
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

type missingFieldError string

func (e missingFieldError) Error() string { return "missing field " + string(e) }

func errMissing(field string) error { return missingFieldError(field) }
