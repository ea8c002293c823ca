package auth

import (
	"context"
	"testing"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		want     bool
	}{
		{"matching tokens", "secret", "secret", true},
		{"wrong token", "wrong", "secret", false},
		{"empty provided", "", "secret", false},
		{"prefix is not enough", "secre", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateToken(tt.provided, tt.expected); got != tt.want {
				t.Errorf("ValidateToken(%q, %q) = %v, want %v", tt.provided, tt.expected, got, tt.want)
			}
		})
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if got := SessionFromContext(ctx); got != nil {
		t.Errorf("SessionFromContext(empty) = %v, want nil", got)
	}

	ctx = WithSession(ctx, &Session{UserID: "u-1"})
	got := SessionFromContext(ctx)
	if got == nil || got.UserID != "u-1" {
		t.Errorf("SessionFromContext() = %+v, want UserID u-1", got)
	}
}
