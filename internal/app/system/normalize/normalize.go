// internal/app/system/normalize/normalize.go
package normalize

import (
	"regexp"
	"strings"
)

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

var loginSeparators = regexp.MustCompile(`[\s\-]+`)

// LoginName derives a login name base from an employee id: lowercased,
// trimmed, with each run of whitespace or hyphens replaced by "_".
// "EMP 001" and "emp-001" both become "emp_001".
func LoginName(employeeID string) string {
	s := strings.ToLower(strings.TrimSpace(employeeID))
	return loginSeparators.ReplaceAllString(s, "_")
}

// Digits reports whether s is non-empty and made only of ASCII digits.
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
