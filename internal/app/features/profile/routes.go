// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the profile endpoints (typically at "/profile"). Every role
// may read its own profile and change its own password.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Post("/password", h.HandleChangePassword)
	return r
}
