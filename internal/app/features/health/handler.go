// Package health reports whether the service can reach its backends.
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Check is an optional backend probe such as Redis. A failing check marks
// the service degraded but still answers 200; only the database is fatal.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handler struct {
	DB     Pinger
	Checks []Check
	Log    *zap.Logger
}

func NewHandler(db Pinger, logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{DB: db, Checks: checks, Log: logger}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Serve handles GET /health: 200 with status "ok" or "degraded", or 503
// with status "error" when MongoDB does not answer.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "connected"}
	for _, c := range h.Checks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(h.Checks))
		}
		if err := c.Probe(ctx); err != nil {
			h.Log.Warn("health-check failed", zap.String("check", c.Name), zap.Error(err))
			resp.Checks[c.Name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		viewdata.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	viewdata.OK(w, resp)
}
