// internal/app/features/districts/routes.go
package districts

import (
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the district routes under the base path (typically
// "/districts" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		// LIST (superusers see all; coordinators see their own district)
		pr.Get("/", h.ServeList)

		// Superuser-only administration
		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole(models.RoleSuperuser))
			ar.Post("/", h.HandleCreate)
			ar.Post("/import", h.HandleImport)
			ar.Put("/{id}", h.HandleRename)
			ar.Delete("/{id}", h.HandleDelete)
		})
	})

	return r
}
