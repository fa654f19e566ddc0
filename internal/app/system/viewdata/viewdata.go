// internal/app/system/viewdata/viewdata.go
//
// Package viewdata writes the response bodies handlers return: JSON
// documents and file downloads.
package viewdata

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// Content types used by the export endpoints.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent answers 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Download sets the headers for a file attachment. Call it before writing
// the body.
func Download(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")
}

// ExportName builds a dated export filename such as
// "fieldaudit_all_data_2026-10-16.xlsx".
func ExportName(base, date, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, date, ext)
}
