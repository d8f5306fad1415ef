package registry

import "errors"

var (
	// ErrUnavailable marks transient upstream failures (network errors,
	// timeouts, 5xx). The caller may retry with backoff; the client itself
	// never retries.
	ErrUnavailable = errors.New("registry unavailable")

	// ErrRejected marks permanent upstream rejections (4xx). Retrying
	// without changing the input will not help.
	ErrRejected = errors.New("registry rejected request")

	// ErrAuthFailed marks failures while acquiring or using the bearer
	// token, distinct from order failures so callers can redo
	// authentication instead of resubmitting.
	ErrAuthFailed = errors.New("registry authentication failed")
)
