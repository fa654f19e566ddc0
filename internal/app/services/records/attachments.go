package records

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.uber.org/zap"
)

// Attachment form fields.
const (
	FieldPatientPhoto     = "patient_photo"
	FieldCaseFile         = "case_file"
	FieldDischargeSummary = "discharge_summary"
	FieldBillsDocuments   = "bills_documents"
	FieldAuditPhotos      = "photos"
)

const mb = 1 << 20

// Upload is one file received from a form.
type Upload struct {
	Field       string
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

type uploadRule struct {
	category   string
	extensions []string
	maxSize    int64
}

var (
	imageExt    = []string{"jpg", "jpeg", "png"}
	documentExt = []string{"pdf", "jpg", "jpeg", "png", "doc", "docx"}
)

var uploadRules = map[string]uploadRule{
	FieldPatientPhoto:     {blobstore.CategoryPatientPhotos, imageExt, 5 * mb},
	FieldCaseFile:         {blobstore.CategoryCaseFiles, documentExt, 10 * mb},
	FieldDischargeSummary: {blobstore.CategoryDischargeSummaries, documentExt, 10 * mb},
	FieldBillsDocuments:   {blobstore.CategoryBills, []string{"pdf", "jpg", "jpeg", "png"}, 10 * mb},
	FieldAuditPhotos:      {blobstore.CategoryAuditPhotos, imageExt, 5 * mb},
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// CheckUpload validates u against its field's extension and size rules.
func CheckUpload(u Upload) error {
	rule, ok := uploadRules[u.Field]
	if !ok {
		return apperr.Invalid(u.Field, "unknown attachment field")
	}
	if !slices.Contains(rule.extensions, extension(u.Filename)) {
		return &apperr.AttachmentRejected{Field: u.Field, Reason: apperr.ReasonExtension}
	}
	if u.Size > rule.maxSize {
		return &apperr.AttachmentRejected{Field: u.Field, Reason: apperr.ReasonSize}
	}
	return nil
}

func validatePatientUploads(uploads []Upload) error {
	seen := map[string]bool{}
	for _, u := range uploads {
		if u.Field == FieldAuditPhotos {
			return apperr.Invalid(u.Field, "not a patient attachment")
		}
		if seen[u.Field] {
			return apperr.Invalid(u.Field, "only one file allowed")
		}
		seen[u.Field] = true
		if err := CheckUpload(u); err != nil {
			return err
		}
	}
	return nil
}

func validatePhotos(photos []Upload) error {
	for _, u := range photos {
		if u.Field != FieldAuditPhotos {
			return apperr.Invalid(u.Field, "not an audit photo")
		}
		if err := CheckUpload(u); err != nil {
			return err
		}
	}
	return nil
}

// put writes one validated upload and returns its location.
func (s *Service) put(ctx context.Context, u Upload) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("attachment %s: no blob store configured", u.Field)
	}
	p := blobstore.Path(uploadRules[u.Field].category, u.Filename, s.now())
	loc, err := s.blobs.Put(ctx, p, u.Body, u.Size, u.ContentType)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", u.Field, err)
	}
	s.metrics.BlobWritten(u.Size)
	return loc, nil
}

func (s *Service) putPhotos(ctx context.Context, photos []Upload) ([]string, error) {
	var written []string
	for _, u := range photos {
		loc, err := s.put(ctx, u)
		if err != nil {
			s.deleteBlobs(ctx, written)
			return nil, err
		}
		written = append(written, loc)
	}
	return written, nil
}

// putAttachments writes uploads into att and returns the locations written
// and the locations they replaced.
func (s *Service) putAttachments(ctx context.Context, att *models.Attachments, uploads []Upload) (written, replaced []string, err error) {
	for _, u := range uploads {
		loc, err := s.put(ctx, u)
		if err != nil {
			s.deleteBlobs(ctx, written)
			return nil, nil, err
		}
		written = append(written, loc)
		slot := attachmentSlot(att, u.Field)
		if *slot != "" {
			replaced = append(replaced, *slot)
		}
		*slot = loc
	}
	return written, replaced, nil
}

func attachmentSlot(att *models.Attachments, field string) *string {
	switch field {
	case FieldPatientPhoto:
		return &att.PatientPhoto
	case FieldCaseFile:
		return &att.CaseFile
	case FieldDischargeSummary:
		return &att.DischargeSummary
	default:
		return &att.BillsDocuments
	}
}

func attachmentPaths(att models.Attachments) []string {
	var out []string
	for _, p := range []string{att.PatientPhoto, att.CaseFile, att.DischargeSummary, att.BillsDocuments} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// deleteBlobs removes locations best-effort; failures are logged.
func (s *Service) deleteBlobs(ctx context.Context, locs []string) {
	if s.blobs == nil {
		return
	}
	for _, loc := range locs {
		if err := s.blobs.Delete(ctx, loc); err != nil {
			s.logger.Warn("blob delete failed", zap.String("location", loc), zap.Error(err))
		}
	}
}
