package logger

import "testing"

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "a****@*******.com"},
		{"b@mail.example.org", "b@****.*******.org"},
		{"not-an-email", "[invalid-email]"},
	}

	for _, tt := range tests {
		if got := SanitizedEmail(tt.in); got != tt.want {
			t.Errorf("SanitizedEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"page=2", false},
		{"token=abc", true},
		{"Email=a%40b.com", true},
		{"stripe_signature=t%3D1", true},
		{"q=%zz", true},
	}

	for _, tt := range tests {
		if got := SanitizeQueryString(tt.query); got != tt.want {
			t.Errorf("SanitizeQueryString(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
