package utils

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	id, err := claims.UserIDInt()
	if err != nil || id != 42 {
		t.Errorf("expected user 42, got %d (%v)", id, err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", "1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	sealed, err := Encrypt("access-token", "a secret of any length")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(sealed, "access-token") {
		t.Fatal("ciphertext leaks plaintext")
	}

	plain, err := Decrypt(sealed, "a secret of any length")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "access-token" {
		t.Errorf("expected access-token, got %q", plain)
	}

	if _, err := Decrypt(sealed, "wrong"); err == nil {
		t.Error("expected decrypt with wrong secret to fail")
	}
	if _, err := Decrypt("AAAA", "a secret of any length"); err == nil {
		t.Error("expected short ciphertext to fail")
	}
}

func TestApiKeys(t *testing.T) {
	a, err := GenerateApiKey(16)
	if err != nil {
		t.Fatalf("GenerateApiKey: %v", err)
	}
	b, _ := GenerateApiKey(16)
	if a == b {
		t.Error("expected distinct keys")
	}
	if !strings.HasPrefix(a, apiKeyPrefix) {
		t.Errorf("expected prefix %q in %q", apiKeyPrefix, a)
	}
	if HashApiKey(a) != HashApiKey(a) || HashApiKey(a) == HashApiKey(b) {
		t.Error("hash must be deterministic and distinct per key")
	}
}
