package authz

import (
	"net/http"
	"strings"
)

// HasAnyRole reports whether the caller holds one of roles. Returns false
// when nobody is signed in.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Role returns the caller's lowercased role and whether anyone is signed in.
func Role(r *http.Request) (string, bool) {
	role, _, _, ok := UserCtx(r)
	return role, ok
}
