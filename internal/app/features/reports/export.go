// internal/app/features/reports/export.go
package reports

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/sheet"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateStamp = "2006-01-02"

// ServeExportXLSX handles GET /reports/export.xlsx.
func (h *Handler) ServeExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportAll(w, r, "xlsx", viewdata.ContentTypeXLSX, func(buf *bytes.Buffer, t sheet.Table) error {
		return sheet.WriteXLSX(buf, t)
	})
}

// ServeExportCSV handles GET /reports/export.csv.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportAll(w, r, "csv", viewdata.ContentTypeCSV, func(buf *bytes.Buffer, t sheet.Table) error {
		return sheet.WriteCSV(buf, t)
	})
}

func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(*bytes.Buffer, sheet.Table) error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, err := h.Reporting.ExportAll(ctx, shared.Scope(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "export all", err)
		return
	}
	// Render fully before any header goes out so a failure still answers
	// with a JSON error.
	var buf bytes.Buffer
	if err := write(&buf, t); err != nil {
		h.ErrLog.Fail(w, r, "render export", err)
		return
	}
	h.sent(ctx, w, r, viewdata.ExportName("fieldaudit_all_data", h.Now().Format(dateStamp), ext), ext, contentType, &buf, len(t.Rows), nil)
}

// ServeHospitalExport handles GET /reports/hospitals/{hospitalID}/export.xlsx.
func (h *Handler) ServeHospitalExport(w http.ResponseWriter, r *http.Request) {
	hospitalID := chi.URLParam(r, "hospitalID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, a, err := h.Reporting.ExportHospital(ctx, shared.Scope(r), hospitalID)
	if err != nil {
		h.ErrLog.Fail(w, r, "export hospital", err)
		return
	}
	var buf bytes.Buffer
	if err := sheet.WriteXLSX(&buf, t); err != nil {
		h.ErrLog.Fail(w, r, "render export", err)
		return
	}
	name := viewdata.ExportName("patient_data_"+blobstore.SanitizeFilename(hospitalID), h.Now().Format(dateStamp), "xlsx")
	h.sent(ctx, w, r, name, "xlsx", viewdata.ContentTypeXLSX, &buf, len(t.Rows), &a.DistrictID)
}

func (h *Handler) sent(ctx context.Context, w http.ResponseWriter, r *http.Request, filename, format, contentType string, buf *bytes.Buffer, rows int, district *primitive.ObjectID) {
	viewdata.Download(w, filename, contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Log.Warn("export write interrupted", zap.String("file", filename), zap.Error(err))
		return
	}
	h.Metrics.Export(format)
	h.AuditLog.Admin(ctx, r, audit.EventReportExported, shared.Caller(r).UserID, nil, district,
		map[string]string{"file": filename, "rows": strconv.Itoa(rows)})
}
