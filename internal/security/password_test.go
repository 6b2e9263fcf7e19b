package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	h1, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if h1 == "secret123" {
		t.Fatalf("hash must not equal plaintext")
	}
	if h1 == h2 {
		t.Fatalf("expected distinct salts, got identical hashes")
	}

	cost, err := bcrypt.Cost([]byte(h1))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != Cost {
		t.Fatalf("got cost %d, want %d", cost, Cost)
	}

	if err := CheckPassword(h1, "secret123"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(h1, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
