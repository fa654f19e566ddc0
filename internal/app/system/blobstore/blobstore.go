// Package blobstore stores uploaded attachments on local disk, in memory or
// in S3 behind one small interface.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes and removes blobs by path.
type Store interface {
	// Put stores r at p and returns the location clients use to fetch it.
	Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes a blob given its path or the location Put returned.
	// Deleting a missing blob is not an error.
	Delete(ctx context.Context, p string) error
}

// Upload categories.
const (
	CategoryPatientPhotos      = "patient_photos"
	CategoryCaseFiles          = "case_files"
	CategoryDischargeSummaries = "discharge_summaries"
	CategoryBills              = "bills"
	CategoryAuditPhotos        = "audit_photos"
)

// Path builds <category>/<yyyy>/<mm>/<dd>/<uuid>-<name> with name reduced
// to a safe base name.
func Path(category, name string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s-%s",
		category, now.Year(), now.Month(), now.Day(), uuid.NewString(), SanitizeFilename(name))
}

// SanitizeFilename strips directories and keeps letters, digits, dot, dash
// and underscore. Anything else becomes "_".
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
