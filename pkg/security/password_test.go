package security

import (
	"strings"
	"testing"

	"github.com/retoro-app/retoro-backend/pkg/config"
)

func testConfig() config.PasswordConfig {
	// Low-cost parameters keep the test fast; format is unaffected.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("hunter2!", testConfig())
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("hunter2!", hash)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same-password", testConfig())
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	second, err := HashPassword("same-password", testConfig())
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if first == second {
		t.Fatal("expected unique salts to produce different hashes")
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	if _, err := HashPassword("", testConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8$c2FsdA$aGFzaA",
	} {
		if _, err := VerifyPassword("x", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}
