package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/models"
)

func testUser() *models.User {
	return &models.User{ID: 42, Email: "agent@armory.dev", Username: "agent"}
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	tok, err := IssueToken(testUser(), secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if !strings.HasPrefix(tok, TokenScheme+" ") {
		t.Fatalf("token missing scheme tag: %q", tok)
	}

	claims, err := VerifyToken(tok, secret)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "agent@armory.dev" || claims.Username != "agent" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := IssueToken(testUser(), secret, -1*time.Second)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	_, err = VerifyToken(tok, secret)
	if err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken(testUser(), []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	_, err = VerifyToken(tok, []byte("wrong-secret"))
	if err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerifyToken_BadSchemeOrShape(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueToken(testUser(), secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	raw := strings.TrimPrefix(tok, TokenScheme+" ")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no scheme tag", raw},
		{"wrong scheme tag", "Basic " + raw},
		{"tag only", TokenScheme + " "},
		{"malformed payload", TokenScheme + " not.a.jwt"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := VerifyToken(tc.token, secret); err != common.ErrInvalidToken {
				t.Fatalf("expected common.ErrInvalidToken, got %v", err)
			}
		})
	}
}
