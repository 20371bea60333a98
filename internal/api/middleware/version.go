// Package middleware provides HTTP middleware components for the vector database API.
package middleware

import (
	"net/http"

	"vectorbase/internal/api/response"
)

// SupportedAPIVersion is the only version string accepted on the X-API-Version header.
// Requests that omit the header are accepted for backward compatibility.
const SupportedAPIVersion = "1.0"

// VersionChecker validates the optional X-API-Version request header.
type VersionChecker struct{}

// NewVersionChecker creates a new version checking middleware.
func NewVersionChecker() *VersionChecker {
	return &VersionChecker{}
}

// Handler returns the version checking middleware handler.
func (vc *VersionChecker) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if vc.isPublicEndpoint(r.URL.Path) {
				w.Header().Set("X-API-Version", SupportedAPIVersion)
				next.ServeHTTP(w, r)
				return
			}

			clientVersion := r.Header.Get("X-API-Version")
			if clientVersion != "" && clientVersion != SupportedAPIVersion {
				response.WriteVersionMismatch(w,
					"unsupported X-API-Version",
					"supported versions: "+SupportedAPIVersion)
				return
			}

			w.Header().Set("X-API-Version", SupportedAPIVersion)
			next.ServeHTTP(w, r)
		})
	}
}

// isPublicEndpoint reports whether path should skip version checking.
func (vc *VersionChecker) isPublicEndpoint(path string) bool {
	switch path {
	case "/health", "/api/health", "/ping":
		return true
	default:
		return false
	}
}
