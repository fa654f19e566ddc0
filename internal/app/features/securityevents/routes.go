// internal/app/features/securityevents/routes.go
package securityevents

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the security event routes (typically at
// "/security-events"). Superusers only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperuser))

		pr.Get("/", h.ServeList)
		pr.Get("/types", h.ServeTypes)
		pr.Get("/failed-logins", h.ServeFailedLogins)
	})

	return r
}
