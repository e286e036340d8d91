package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"modelhub/internal/download"
	"modelhub/internal/engine"
	"modelhub/internal/hub"
)

type stubHTTPError struct{ code int }

func (e stubHTTPError) Error() string   { return "stub" }
func (e stubHTTPError) StatusCode() int { return e.code }

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", hub.ErrNotFound("org/m", ""), http.StatusNotFound},
		{"empty manifest", download.ErrEmptyManifest("org/m"), http.StatusUnprocessableEntity},
		{"in progress", download.ErrInProgress("org/m"), http.StatusConflict},
		{"checksum", download.ErrChecksumMismatch("org/m", "model.safetensors"), http.StatusBadGateway},
		{"transient", hub.ErrTransient("search", errors.New("502")), http.StatusBadGateway},
		{"wrapped transient", fmt.Errorf("outer: %w", hub.ErrTransient("fetch", errors.New("timeout"))), http.StatusBadGateway},
		{"not ready", engine.ErrNotReady(engine.StateUnloaded), http.StatusConflict},
		{"runtime unavailable", engine.ErrRuntimeUnavailable("no native runtime"), http.StatusServiceUnavailable},
		{"http error passthrough", stubHTTPError{code: http.StatusTeapot}, http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Fatalf("status=%d want=%d", got, tc.want)
			}
		})
	}
}
