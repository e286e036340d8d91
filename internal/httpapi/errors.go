package httpapi

import (
	"encoding/json"
	"net/http"

	"modelhub/internal/download"
	"modelhub/internal/engine"
	"modelhub/internal/hub"
	"modelhub/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case hub.IsNotFound(err):
		return http.StatusNotFound
	case download.IsEmptyManifest(err):
		return http.StatusUnprocessableEntity
	case download.IsInProgress(err):
		return http.StatusConflict
	case download.IsChecksumMismatch(err):
		return http.StatusBadGateway
	case download.IsFilesystem(err):
		return http.StatusInternalServerError
	case hub.IsTransient(err):
		return http.StatusBadGateway
	case engine.IsNotReady(err):
		return http.StatusConflict
	case engine.IsRuntimeUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		if he, ok := err.(HTTPError); ok {
			return he.StatusCode()
		}
		return http.StatusInternalServerError
	}
}
