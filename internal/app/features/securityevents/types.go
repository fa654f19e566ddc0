// internal/app/features/securityevents/types.go
package securityevents

import (
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
)

// listItem is one event with its ids resolved to names.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorName     string            `json:"actor,omitempty"`
	TargetName    string            `json:"target,omitempty"`
	DistrictName  string            `json:"district,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"event_types"`
}

var authEvents = []string{
	audit.EventLoginSuccess,
	audit.EventLoginFailedUserNotFound,
	audit.EventLoginFailedWrongPassword,
	audit.EventLoginFailedUserDisabled,
	audit.EventLoginFailedRateLimit,
	audit.EventLogout,
	audit.EventCredentialReset,
	audit.EventPasswordChanged,
}

var adminEvents = []string{
	audit.EventCoordinatorProvisioned,
	audit.EventCoordinatorUpdated,
	audit.EventCoordinatorDeleted,
	audit.EventDistrictCreated,
	audit.EventDistrictRenamed,
	audit.EventDistrictDeleted,
	audit.EventDistrictsImported,
	audit.EventUserCreated,
	audit.EventUserUpdated,
	audit.EventUserDeleted,
	audit.EventAuditDeleted,
	audit.EventPatientDeleted,
	audit.EventBulkAction,
	audit.EventReportExported,
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: authEvents},
		{Value: audit.CategoryAdmin, Label: "Administration", EventTypes: adminEvents},
	}
}

// knownEvent reports whether eventType belongs to category ("" for any).
func knownEvent(category, eventType string) bool {
	for _, c := range allCategories() {
		if category != "" && c.Value != category {
			continue
		}
		for _, e := range c.EventTypes {
			if e == eventType {
				return true
			}
		}
	}
	return false
}
