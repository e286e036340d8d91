//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger is a no-op in default builds. Compile with -tags=swagger to
// serve the generated OpenAPI UI.
func MountSwagger(r chi.Router) {}
