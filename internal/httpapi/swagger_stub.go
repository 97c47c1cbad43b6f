//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger is a no-op unless built with -tags swagger.
func MountSwagger(r chi.Router) {}
