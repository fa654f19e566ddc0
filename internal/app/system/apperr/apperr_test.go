package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", Required("hospital_id"), http.StatusUnprocessableEntity, "validation_error"},
		{"attachment", &AttachmentRejected{Field: "case_file", Reason: ReasonSize}, http.StatusUnprocessableEntity, "attachment_rejected"},
		{"date range", ErrInvalidDateRange, http.StatusUnprocessableEntity, "invalid_date_range"},
		{"wrapped not found", fmt.Errorf("load audit: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"duplicate email", ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
		{"duplicate identity", ErrDuplicateIdentity, http.StatusConflict, "duplicate_identity"},
		{"protected", ErrProtected, http.StatusConflict, "protected"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestField(t *testing.T) {
	if got := Field(fmt.Errorf("wrap: %w", Invalid("mobile_number", "digits only"))); got != "mobile_number" {
		t.Errorf("Field() = %q, want mobile_number", got)
	}
	if got := Field(&AttachmentRejected{Field: "patient_photo", Reason: ReasonExtension}); got != "patient_photo" {
		t.Errorf("Field() = %q, want patient_photo", got)
	}
	if got := Field(ErrNotFound); got != "" {
		t.Errorf("Field() = %q, want empty", got)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	if got := Required("case_id").Error(); got != "case_id is required" {
		t.Errorf("got %q", got)
	}
	if got := Invalid("ehcp_type", "must be Public or Private").Error(); got != "ehcp_type: must be Public or Private" {
		t.Errorf("got %q", got)
	}
}

func TestIsDuplicate(t *testing.T) {
	if !IsDuplicate(fmt.Errorf("insert: %w", ErrDuplicateCaseID)) {
		t.Error("expected wrapped case id duplicate to match")
	}
	if IsDuplicate(ErrProtected) {
		t.Error("protected is not a duplicate")
	}
}
