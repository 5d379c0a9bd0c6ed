package utils

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("Expected PHC argon2id format, got %s", hash)
	}

	// Salted: same password, different hash
	again, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == again {
		t.Error("Two hashes of the same password must differ")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	valid, err := VerifyPassword("secret123", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !valid {
		t.Error("Expected correct password to verify")
	}

	valid, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if valid {
		t.Error("Expected wrong password to fail")
	}

	if _, err := VerifyPassword("secret123", "not-a-hash"); err == nil {
		t.Error("Expected malformed hash to error")
	}
	if _, err := VerifyPassword("secret123", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"); err == nil {
		t.Error("Expected foreign algorithm to error")
	}
}

func TestGenerateShareToken(t *testing.T) {
	token, err := GenerateShareToken()
	if err != nil {
		t.Fatalf("GenerateShareToken failed: %v", err)
	}
	if len(token) < 20 {
		t.Errorf("Expected at least 20 characters, got %d", len(token))
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("Expected URL-safe token, got %s", token)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := GenerateShareToken()
		if err != nil {
			t.Fatalf("GenerateShareToken failed: %v", err)
		}
		if seen[tok] {
			t.Fatal("Share tokens must not repeat")
		}
		seen[tok] = true
	}
}

func TestHashResetToken(t *testing.T) {
	digest := HashResetToken("some-token")
	if len(digest) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(digest))
	}
	if digest != HashResetToken("some-token") {
		t.Error("Digest must be deterministic")
	}
	if digest == HashResetToken("other-token") {
		t.Error("Different tokens must hash differently")
	}
}
