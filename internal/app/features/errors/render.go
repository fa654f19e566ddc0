// internal/app/features/errors/render.go
package errors

import "net/http"

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not_found", "no such resource", "")
}

// MethodNotAllowed answers a known route called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported here", "")
}

// RenderUnauthorized answers a request that needs a signed-in user.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusUnauthorized, "unauthorized", "sign in required", "")
}

// RenderForbidden answers a request the caller may not make.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "you do not have access to this resource"
	}
	Write(w, http.StatusForbidden, "forbidden", msg, "")
}
