package hub

import "fmt"

// transientError wraps connection/timeout/5xx failures that are safe to
// retry with backoff.
type transientError struct {
	op  string
	err error
}

func (e transientError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e transientError) Unwrap() error { return e.err }

// ErrTransient wraps err as a retryable registry failure.
func ErrTransient(op string, err error) error { return transientError{op: op, err: err} }

// IsTransient reports whether err is a retryable network failure.
func IsTransient(err error) bool {
	for err != nil {
		if _, ok := err.(transientError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// notFoundError signals a missing model or file on the registry.
type notFoundError struct {
	id   string
	file string
}

func (e notFoundError) Error() string {
	if e.file != "" {
		return "not found: " + e.id + "/" + e.file
	}
	return "not found: " + e.id
}

// ErrNotFound constructs a not-found error for a model, or for a file within
// a model when file is non-empty.
func ErrNotFound(id, file string) error { return notFoundError{id: id, file: file} }

// IsNotFound reports whether err indicates a missing model or file.
func IsNotFound(err error) bool {
	for err != nil {
		if _, ok := err.(notFoundError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
