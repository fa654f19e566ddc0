// internal/app/features/coordinators/routes.go
package coordinators

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the coordinator routes (typically at "/coordinators").
//
//	h := coordinators.NewHandler(repo, provisioningSvc, auditLogger, errLog, logger)
//	r.Mount("/coordinators", coordinators.Routes(h, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperuser))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Put("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/reset-credential", h.HandleResetCredential)
	})

	return r
}
