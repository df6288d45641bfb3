package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("CorrectHorse9")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "CorrectHorse9" {
		t.Fatal("hash equals the plaintext password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q is not a bcrypt hash", hash)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("failed to read bcrypt cost: %v", err)
	}
	if cost != DefaultCost {
		t.Errorf("bcrypt cost = %d, want %d", cost, DefaultCost)
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short7A"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("HashPassword(short) error = %v, want ErrPasswordTooShort", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("CorrectHorse9")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword("CorrectHorse9", hash) {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword("WrongHorse9", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
	if CheckPassword("CorrectHorse9", "not a hash") {
		t.Error("CheckPassword accepted a malformed hash")
	}
	if CheckPassword("", hash) {
		t.Error("CheckPassword accepted an empty password")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("CorrectHorse9")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := HashPassword("CorrectHorse9")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}
