// internal/app/features/audits/routes.go
package audits

import (
	"github.com/dalemusser/fieldaudit/internal/app/features/patients"
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit routes (typically at "/audits"). Patients
// recorded under an audit are served by ph.
//
//	r.Mount("/audits", audits.Routes(auditsHandler, patientsHandler, sessionMgr))
func Routes(h *Handler, ph *patients.Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Put("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Get("/{id}/patients", ph.ServeAuditList)
		pr.Post("/{id}/patients", ph.HandleCreate)
	})

	return r
}
