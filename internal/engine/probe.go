package engine

// Capability is the tri-state availability of the native runtime binding.
// Unknown means "not probed yet"; the first Load resolves it.
type Capability string

const (
	CapUnknown     Capability = "unknown"
	CapAvailable   Capability = "available"
	CapUnavailable Capability = "unavailable"
)

// ProbeRuntime resolves whether the native binding was compiled in. The
// result is decided at call time, not build time, so callers can select a
// fallback path per request.
func ProbeRuntime() Capability {
	if nativeBuilt {
		return CapAvailable
	}
	return CapUnavailable
}
