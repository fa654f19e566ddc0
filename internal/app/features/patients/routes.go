// internal/app/features/patients/routes.go
package patients

import (
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the patient routes (typically at "/patients").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		pr.Put("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
