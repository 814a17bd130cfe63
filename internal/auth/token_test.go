package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "test-secret"})

	token, err := svc.GenerateToken("user-1", "coach@example.com", []string{"coaches"}, "")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}

	p, err := ExtractPrincipal(claims.Bag())
	if err != nil {
		t.Fatalf("ExtractPrincipal() failed: %v", err)
	}
	if p.UserID != "user-1" || p.Email != "coach@example.com" {
		t.Errorf("Unexpected principal: %+v", p)
	}
	if !p.HasRole(RoleCoach) {
		t.Error("Expected coach role from groups")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "test-secret"})
	other := NewTokenService(TokenConfig{Secret: "other-secret"})
	expired := NewTokenService(TokenConfig{Secret: "test-secret", TokenDuration: -time.Minute})
	foreignIssuer := NewTokenService(TokenConfig{Secret: "test-secret", Issuer: "someone-else"})

	tests := []struct {
		name   string
		issuer *TokenService
	}{
		{"wrong secret", other},
		{"expired", expired},
		{"wrong issuer", foreignIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issuer.GenerateToken("user-1", "", nil, "")
			if err != nil {
				t.Fatalf("GenerateToken() failed: %v", err)
			}
			if _, err := svc.ValidateToken(token); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}

	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected garbage token to fail")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
