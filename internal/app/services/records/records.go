// Package records validates and persists field audits and their patients,
// along with the attachments and district administration around them.
package records

import (
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Service owns audit and patient writes.
type Service struct {
	repo    repo.Repository
	blobs   blobstore.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New returns a Service. blobs may be nil when uploads are disabled; m may be nil.
func New(r repo.Repository, blobs blobstore.Store, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    r,
		blobs:   blobs,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// field is one row of a form's declaration table.
type field[T any] struct {
	name     string
	required bool
	value    func(T) string
}

func checkRequired[T any](fields []field[T], in T) error {
	for _, f := range fields {
		if f.required && strings.TrimSpace(f.value(in)) == "" {
			return apperr.Required(f.name)
		}
	}
	return nil
}

func dateValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func oneOf(field, v string, allowed ...string) error {
	if v == "" {
		return nil
	}
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return apperr.Invalid(field, "must be one of "+strings.Join(allowed, ", "))
}

func yesNo(field, v string) error { return oneOf(field, v, "Yes", "No") }

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// normalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeClock(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !clockPattern.MatchString(v) {
		return "", false
	}
	if len(v) == 5 {
		v += ":00"
	}
	return v, true
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
