package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify against its own hash")
	}

	ok, err = h.Verify("not the password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHasher_DistinctSalts(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	h1, err := h.Hash("p")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := h.Hash("p")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ (distinct salts)")
	}
}

func TestHasher_MalformedHashIsError(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Verify("p", "not-a-bcrypt-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	t.Parallel()

	hash, err := NewHasher(99).Hash("p")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("out-of-range cost must fall back to default, got %d", cost)
	}
}

func TestDummyHash_IsWellFormed(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Verify("whatever", DummyHash); err != nil {
		t.Fatalf("DummyHash must be a parseable bcrypt hash: %v", err)
	}
}
