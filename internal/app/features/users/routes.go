// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts identity administration (typically at "/users").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in superusers manage identities.
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperuser))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
