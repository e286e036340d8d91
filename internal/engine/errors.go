package engine

// runtimeUnavailableError signals a missing native runtime so callers can
// pick the fallback path (or the HTTP layer can return 503).
type runtimeUnavailableError struct{ msg string }

func (e runtimeUnavailableError) Error() string { return e.msg }

// ErrRuntimeUnavailable constructs a runtimeUnavailableError.
func ErrRuntimeUnavailable(msg string) error { return runtimeUnavailableError{msg: msg} }

// IsRuntimeUnavailable reports whether err indicates a missing runtime.
func IsRuntimeUnavailable(err error) bool {
	_, ok := err.(runtimeUnavailableError)
	return ok
}

// notReadyError signals a generate call against an engine with no loaded model.
type notReadyError struct{ state State }

func (e notReadyError) Error() string { return "engine not ready: state " + string(e.state) }

// ErrNotReady constructs a notReadyError for the given state.
func ErrNotReady(s State) error { return notReadyError{state: s} }

// IsNotReady reports whether err indicates no model is loaded.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}
