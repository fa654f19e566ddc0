package audits_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/features/audits"
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/patients"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	fx     *testutil.Fixtures
	repo   *memory.Repo
	blobs  *blobstore.AferoStore
	alpha  models.District
	beta   models.District
	coord  testutil.TestUser
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	fx, r := testutil.NewMemoryFixtures(t)
	alpha := fx.CreateDistrict(ctx, "Alpha")
	beta := fx.CreateDistrict(ctx, "Beta")
	_, cu := fx.CreateCoordinator(ctx, "E1", &alpha)

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "s", "", time.Hour, false, logger)
	require.NoError(t, err)

	blobs := blobstore.NewMemory()
	svc := records.New(r, blobs, logger, nil)
	al := auditlog.New(nil, logger, auditlog.Config{})
	errLog := errorsfeature.NewErrorLogger(logger)

	ph := patients.NewHandler(r, svc, al, errLog, logger)
	h := audits.NewHandler(r, svc, al, errLog, logger)
	root := chi.NewRouter()
	root.Mount("/audits", audits.Routes(h, ph, sm))
	root.Mount("/patients", patients.Routes(ph, sm))

	return &env{router: root, fx: fx, repo: r, blobs: blobs, alpha: alpha, beta: beta, coord: testutil.UserFor(cu)}
}

func (e *env) do(req *http.Request, u testutil.TestUser) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(req, u))
	return rec
}

func auditBody(district string) map[string]any {
	return map[string]any{
		"district":       district,
		"hospital_id":    "H-100",
		"ehcp_name":      "City Care",
		"ehcp_type":      models.EHCPPrivate,
		"auditor_name":   "Asha",
		"designation":    "Auditor",
		"visit_date":     "2026-04-02",
		"visit_time":     "09:15",
		"ekgp_patients":  4,
		"pmjay_patients": 6,
		"beneficiaries":  99,
	}
}

func patientBody(caseID string) map[string]any {
	return map[string]any{
		"case_id":          caseID,
		"patient_name":     "Ravi",
		"admission_date":   "2026-03-01",
		"discharge_date":   "2026-03-05",
		"package_name":     "Cardiac",
		"money_collection": true,
		"case_summary":     "Admitted for observation",
		"total_oope":       1250.5,
	}
}

func multipartRequest(t *testing.T, method, target string, payload any, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("payload", string(raw)))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateAudit_RecomputesBeneficiaries(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest(t, "POST", "/audits", auditBody("Alpha")), e.coord)
	rec.AssertStatus(t, http.StatusCreated)

	var a models.FieldAudit
	rec.DecodeJSON(t, &a)
	assert.Equal(t, 10, a.Beneficiaries)
	assert.Equal(t, "09:15:00", a.VisitTime)
	assert.Equal(t, models.AuditPending, a.Status)
	assert.Equal(t, e.alpha.ID, a.DistrictID)
}

func TestCreateAudit_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
		code   string
	}{
		{"other district", func(b map[string]any) { b["district"] = "Beta" }, http.StatusForbidden, "forbidden"},
		{"unknown district", func(b map[string]any) { b["district"] = "Nowhere" }, http.StatusNotFound, "not_found"},
		{"bad date", func(b map[string]any) { b["visit_date"] = "02/04/2026" }, http.StatusUnprocessableEntity, "validation_error"},
		{"bad type", func(b map[string]any) { b["ehcp_type"] = "Clinic" }, http.StatusUnprocessableEntity, "validation_error"},
		{"missing auditor", func(b map[string]any) { delete(b, "auditor_name") }, http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := auditBody("Alpha")
			tt.mutate(body)
			rec := e.do(testutil.NewJSONRequest(t, "POST", "/audits", body), e.coord)
			rec.AssertStatus(t, tt.status)
			assert.Equal(t, tt.code, rec.ErrorCode())
		})
	}
}

func TestCreateAudit_MultipartPhoto(t *testing.T) {
	e := newEnv(t)

	req := multipartRequest(t, "POST", "/audits", auditBody("Alpha"), records.FieldAuditPhotos, "ward.jpg", "jpeg-bytes")
	rec := e.do(req, e.coord)
	rec.AssertStatus(t, http.StatusCreated)

	var a models.FieldAudit
	rec.DecodeJSON(t, &a)
	require.Len(t, a.Photos, 1)
	assert.True(t, e.blobs.Exists(strings.TrimPrefix(a.Photos[0], "mem://")))
}

func TestCreateAudit_MultipartRejectsExtension(t *testing.T) {
	e := newEnv(t)

	req := multipartRequest(t, "POST", "/audits", auditBody("Alpha"), records.FieldAuditPhotos, "ward.exe", "x")
	rec := e.do(req, e.coord)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	assert.Equal(t, "attachment_rejected", rec.ErrorCode())
}

func TestListAndView_Scoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.fx.CreateAudit(ctx, e.alpha, "H-1", "Alpha Clinic")
	theirs := e.fx.CreateAudit(ctx, e.beta, "H-2", "Beta Clinic")
	e.fx.CreatePatient(ctx, mine, "C-1", nil)

	var page struct {
		Items []models.FieldAudit `json:"items"`
		Total int64               `json:"total"`
	}
	rec := e.do(testutil.NewRequest("GET", "/audits"), e.coord)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)
	assert.EqualValues(t, 1, page.Total)

	rec = e.do(testutil.NewRequest("GET", "/audits"), testutil.SuperUser())
	rec.DecodeJSON(t, &page)
	assert.EqualValues(t, 2, page.Total)

	rec = e.do(testutil.NewRequest("GET", "/audits/"+mine.ID.Hex()), e.coord)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"case_id":"C-1"`)

	e.do(testutil.NewRequest("GET", "/audits/"+theirs.ID.Hex()), e.coord).AssertStatus(t, http.StatusNotFound)
	e.do(testutil.NewRequest("GET", "/audits/not-an-id"), e.coord).AssertStatus(t, http.StatusNotFound)
}

func TestList_StaffWithoutDistrictSeesNothing(t *testing.T) {
	e := newEnv(t)
	e.fx.CreateAudit(context.Background(), e.alpha, "H-1", "Alpha Clinic")

	rec := e.do(testutil.NewRequest("GET", "/audits"), testutil.StaffUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"items":[]`)
}

func TestDeleteAudit_RemovesPatients(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.fx.CreateAudit(ctx, e.alpha, "H-1", "Alpha Clinic")
	p := e.fx.CreatePatient(ctx, a, "C-1", nil)

	e.do(testutil.NewRequest("DELETE", "/audits/"+a.ID.Hex()), e.coord).AssertStatus(t, http.StatusNoContent)

	_, err := e.repo.Patients().GetByID(ctx, p.ID)
	assert.Error(t, err)
	e.do(testutil.NewRequest("GET", "/patients/"+p.ID.Hex()), e.coord).AssertStatus(t, http.StatusNotFound)
}

func TestCreatePatient_UnderAudit(t *testing.T) {
	e := newEnv(t)
	a := e.fx.CreateAudit(context.Background(), e.alpha, "H-1", "Alpha Clinic")

	rec := e.do(testutil.NewJSONRequest(t, "POST", "/audits/"+a.ID.Hex()+"/patients", patientBody("C-9")), e.coord)
	rec.AssertStatus(t, http.StatusCreated)

	var p patients.PatientView
	rec.DecodeJSON(t, &p)
	assert.Equal(t, a.ID, p.AuditID)
	assert.Equal(t, []string{models.DeviationMoneyCollection}, p.Deviations)
	assert.Equal(t, "NA", p.PackageCode)
	assert.EqualValues(t, 125050, p.TotalOOPECents)
	assert.False(t, p.Compliant)

	rec = e.do(testutil.NewJSONRequest(t, "POST", "/audits/"+a.ID.Hex()+"/patients", patientBody("C-9")), e.coord)
	rec.AssertStatus(t, http.StatusConflict)
	assert.Equal(t, "duplicate_case_id", rec.ErrorCode())
}

func TestCreatePatient_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.fx.CreateAudit(ctx, e.alpha, "H-1", "Alpha Clinic")
	other := e.fx.CreateAudit(ctx, e.beta, "H-2", "Beta Clinic")

	body := patientBody("C-1")
	body["discharge_date"] = "2026-02-01"
	rec := e.do(testutil.NewJSONRequest(t, "POST", "/audits/"+a.ID.Hex()+"/patients", body), e.coord)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	assert.Equal(t, "invalid_date_range", rec.ErrorCode())

	rec = e.do(testutil.NewJSONRequest(t, "POST", "/audits/"+other.ID.Hex()+"/patients", patientBody("C-2")), e.coord)
	rec.AssertStatus(t, http.StatusNotFound)

	req := multipartRequest(t, "POST", "/audits/"+a.ID.Hex()+"/patients", patientBody("C-3"), records.FieldCaseFile, "case.txt", "x")
	rec = e.do(req, e.coord)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	assert.Equal(t, "attachment_rejected", rec.ErrorCode())
}

func TestAuditPatients_List(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.fx.CreateAudit(ctx, e.alpha, "H-1", "Alpha Clinic")
	e.fx.CreatePatient(ctx, a, "C-1", nil)
	e.fx.CreatePatient(ctx, a, "C-2", func(p *models.Patient) { p.MoneyCollection = true })

	var page struct {
		Items []patients.PatientView `json:"items"`
		Total int64                  `json:"total"`
	}
	rec := e.do(testutil.NewRequest("GET", "/audits/"+a.ID.Hex()+"/patients?money_collection=true"), e.coord)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C-2", page.Items[0].CaseID)

	e.do(testutil.NewRequest("GET", "/audits/"+a.ID.Hex()+"/patients?money_collection=maybe"), e.coord).
		AssertStatus(t, http.StatusUnprocessableEntity)
}
