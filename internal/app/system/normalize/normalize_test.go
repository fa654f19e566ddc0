package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Asha Devi", "Asha Devi"},
		{"  Asha   Devi  ", "Asha Devi"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoginName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"EMP001", "emp001"},
		{"  EMP 001  ", "emp_001"},
		{"emp-1", "emp_1"},
		{"EMP-1", "emp_1"},
		{"emp 1", "emp_1"},
		{"a  -  b", "a_b"},
		{"emp_1", "emp_1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LoginName(tt.input); got != tt.want {
				t.Errorf("LoginName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"search term", "search term"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
		{"UPPERCASE", "UPPERCASE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QueryParam(tt.input); got != tt.want {
				t.Errorf("QueryParam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"9876543210", true},
		{"", false},
		{"98765 43210", false},
		{"+919876543210", false},
		{"98a", false},
	}
	for _, tt := range tests {
		if got := Digits(tt.input); got != tt.want {
			t.Errorf("Digits(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
