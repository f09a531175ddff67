package security

import "testing"

func TestVerifyAdminToken(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		configured string
		want       bool
	}{
		{name: "exact match", presented: "tok_abc123", configured: "tok_abc123", want: true},
		{name: "surrounding whitespace", presented: "  tok_abc123 ", configured: "tok_abc123", want: true},
		{name: "wrong token", presented: "tok_wrong", configured: "tok_abc123", want: false},
		{name: "correct prefix", presented: "tok_abc", configured: "tok_abc123", want: false},
		{name: "different length", presented: "tok_abc123456789", configured: "tok_abc123", want: false},
		{name: "empty presented", presented: "", configured: "tok_abc123", want: false},
		{name: "unconfigured secret", presented: "tok_abc123", configured: "", want: false},
		{name: "both empty", presented: "", configured: "", want: false},
	}

	for _, tt := range tests {
		if got := VerifyAdminToken(tt.presented, tt.configured); got != tt.want {
			t.Fatalf("%s: VerifyAdminToken(%q, %q) = %v, want %v", tt.name, tt.presented, tt.configured, got, tt.want)
		}
	}
}
