// internal/app/features/districts/import.go
package districts

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/sheet"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// importField is the multipart part carrying the csv.
const importField = "file"

type importResponse struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
	Skipped  []string `json:"skipped"`
}

// HandleImport handles POST /districts/import: a csv of district names,
// one per line. Names that already exist are reported, not rejected.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, sheet.MaxUploadSize+(1<<16))
	if err := r.ParseMultipartForm(sheet.MaxUploadSize); err != nil {
		h.ErrLog.Fail(w, r, "parse district import", apperr.Invalid(importField, "upload a csv file under 5 MB"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile(importField)
	if err != nil {
		h.ErrLog.Fail(w, r, "district import file", apperr.Required(importField))
		return
	}
	defer f.Close()

	names, rowErrs, err := sheet.ParseDistrictCSV(f)
	if err != nil {
		h.ErrLog.Fail(w, r, "read district csv", apperr.Invalid(importField, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Records.SeedDistricts(ctx, names)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "seed districts", err, "Import stopped partway. Re-run it to finish.")
		return
	}

	out := importResponse{Created: res.Created, Existing: res.Existing, Skipped: []string{}}
	for _, re := range rowErrs {
		out.Skipped = append(out.Skipped, re.String())
	}
	if out.Created == nil {
		out.Created = []string{}
	}
	if out.Existing == nil {
		out.Existing = []string{}
	}

	h.AuditLog.Admin(ctx, r, audit.EventDistrictsImported, shared.Caller(r).UserID, nil, nil, map[string]string{
		"created":  strconv.Itoa(len(out.Created)),
		"existing": strconv.Itoa(len(out.Existing)),
	})
	h.Log.Info("districts imported", zap.Int("created", len(out.Created)), zap.Int("skipped", len(out.Skipped)))
	viewdata.OK(w, out)
}
