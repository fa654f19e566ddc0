// Package apperr defines the error taxonomy shared by the stores, the
// workflow services and the HTTP layer.
//
// Sentinels are compared with errors.Is; ValidationError and
// AttachmentRejected carry the offending field and are matched with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidDateRange    = errors.New("discharge date is before admission date")
	ErrDuplicateEmail      = errors.New("an identity with this email already exists")
	ErrDuplicateIdentity   = errors.New("an identity with this login name already exists")
	ErrDuplicateDistrict   = errors.New("a district with this name already exists")
	ErrDuplicateEmployeeID = errors.New("a coordinator with this employee id already exists")
	ErrDuplicateCaseID     = errors.New("a patient with this case id already exists")
	ErrProtected           = errors.New("record is referenced and cannot be deleted")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required builds the ValidationError for an absent field.
func Required(field string) error {
	return &ValidationError{Field: field}
}

// Invalid builds a ValidationError with a message.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Attachment rejection reasons.
const (
	ReasonExtension = "extension"
	ReasonSize      = "size"
)

// AttachmentRejected reports an upload refused before any blob write.
type AttachmentRejected struct {
	Field  string
	Reason string // ReasonExtension or ReasonSize
}

func (e *AttachmentRejected) Error() string {
	return fmt.Sprintf("attachment %s rejected: %s", e.Field, e.Reason)
}

// Status maps an error to the HTTP status the presentation layer returns.
func Status(err error) int {
	var ve *ValidationError
	var ar *AttachmentRejected
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve), errors.As(err, &ar), errors.Is(err, ErrInvalidDateRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicateIdentity),
		errors.Is(err, ErrDuplicateDistrict), errors.Is(err, ErrDuplicateEmployeeID),
		errors.Is(err, ErrDuplicateCaseID), errors.Is(err, ErrProtected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	var ve *ValidationError
	var ar *AttachmentRejected
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &ar):
		return "attachment_rejected"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, ErrDuplicateDistrict):
		return "duplicate_district"
	case errors.Is(err, ErrDuplicateEmployeeID):
		return "duplicate_employee_id"
	case errors.Is(err, ErrDuplicateCaseID):
		return "duplicate_case_id"
	case errors.Is(err, ErrProtected):
		return "protected"
	default:
		return "internal"
	}
}

// Field returns the offending field for validation and attachment errors.
func Field(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var ar *AttachmentRejected
	if errors.As(err, &ar) {
		return ar.Field
	}
	return ""
}

// IsDuplicate reports whether err is any uniqueness violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateIdentity) ||
		errors.Is(err, ErrDuplicateDistrict) || errors.Is(err, ErrDuplicateEmployeeID) ||
		errors.Is(err, ErrDuplicateCaseID)
}
