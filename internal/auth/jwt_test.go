package auth

import (
	"strings"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", "marketplace-test")

	token, err := m.GenerateAccessToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := m.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("UserID = %s, want user-123", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %s, want user@example.com", claims.Email)
	}
	if claims.Issuer != "marketplace-test" {
		t.Errorf("Issuer = %s, want marketplace-test", claims.Issuer)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", "")

	token, err := m.GenerateAccessToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	other := NewJWTManager("secret-b", "")
	if _, err := other.VerifyAccessToken(token); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewJWTManager("test-secret", "")

	token, err := m.GenerateAccessToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.VerifyAccessToken(tampered); err == nil {
		t.Error("expected verification failure for a tampered token")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	m := NewJWTManager("test-secret", "")

	a, err := m.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	b, err := m.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("refresh tokens must be unique")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"missing prefix", "abc.def.ghi", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTokenFromHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}

	// Bearer prefix check is case sensitive per RFC 6750 token usage here.
	if _, err := ExtractTokenFromHeader("bearer " + strings.Repeat("a", 10)); err == nil {
		t.Error("lowercase scheme accepted")
	}
}
