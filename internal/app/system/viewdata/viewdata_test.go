package viewdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusTeapot, map[string]int{"n": 3})

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got["n"] != 3 {
		t.Errorf("body = %q (%v)", rec.Body.String(), err)
	}
}

func TestDownload(t *testing.T) {
	rec := httptest.NewRecorder()
	Download(rec, ExportName("fieldaudit_all_data", "2026-10-16", "csv"), ContentTypeCSV)

	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "fieldaudit_all_data_2026-10-16.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
