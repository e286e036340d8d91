//go:build !llama

package engine

// Compiled when the 'llama' build tag is NOT set, keeping default builds and
// CI CGO-free. The real binding lives in adapter_native.go (tagged 'llama').

var nativeBuilt = false

// NewNativeAdapter fails fast without the 'llama' build tag; callers fall
// back to the echo adapter and the engine reports Degraded.
func NewNativeAdapter(ctxSize, threads int) (Adapter, error) {
	return nil, ErrRuntimeUnavailable("native runtime not built (missing 'llama' build tag)")
}
