package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/fieldaudit/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Ward was clean.", "Ward was clean."},
		{"trims", "  bills missing  ", "bills missing"},
		{"script removed", `ok<script>alert("x")</script>`, "ok"},
		{"tags stripped", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"onclick dropped", `<a href="#" onclick="evil()">link</a>`, "link"},
		{"entities kept readable", "fees & charges", "fees & charges"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
