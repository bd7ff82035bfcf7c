package auth

import (
	"testing"
)

func TestGenerateAndValidateTokens(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "drinkly", "drinkly")

	access, refresh, err := a.GenerateTokens(42)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens should differ")
	}

	tok, err := a.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if !tok.Valid {
		t.Fatal("access token should be valid")
	}

	if _, err := a.ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "drinkly", "drinkly")

	access, refresh, err := a.GenerateTokens(7)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a.ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token must not validate as access token")
	}
	if _, err := a.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token must not validate as refresh token")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "drinkly", "drinkly")
	b := NewJWTAuthenticator("other-secret", "other-refresh", "drinkly", "drinkly")

	access, _, err := a.GenerateTokens(1)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := b.ValidateAccessToken(access); err == nil {
		t.Fatal("token signed with a different secret must not validate")
	}
}
