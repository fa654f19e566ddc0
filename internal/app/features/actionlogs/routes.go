// internal/app/features/actionlogs/routes.go
package actionlogs

import (
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the action log routes (typically at "/action-logs").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		pr.Get("/", h.ServeList)

		// Only coordinators act; the service also requires an active
		// coordinator with a district.
		pr.Group(func(cr chi.Router) {
			cr.Use(sm.RequireRole(models.RoleCoordinator))
			cr.Post("/", h.HandleRecord)
			cr.Post("/bulk/{action}", h.HandleBulk)
		})
	})

	return r
}
