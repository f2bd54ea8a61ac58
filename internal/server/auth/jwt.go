// Package auth implements the security primitives of the server: password
// hashing, signed identity tokens, and the session store that links a client
// cookie to the token minted at login.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/models"
)

// TokenScheme is the literal tag prefixed to every issued token. The tag is
// structural, not a credential: verification requires the exact tag.
const TokenScheme = "Bearer"

// Claims is the identity payload embedded in issued tokens. Once issued the
// claims are immutable; reflecting changed user data requires a new token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// IssueToken signs an HS256 token carrying the user's identity, valid for
// validityDuration, and returns it in "Bearer <token>" form.
func IssueToken(user *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return TokenScheme + " " + tokenString, nil
}

// VerifyToken checks the scheme tag, signature and expiry of tokenString and
// returns the embedded claims. Every failure collapses to
// common.ErrInvalidToken so callers cannot tell which check rejected it.
func VerifyToken(tokenString string, secretKey []byte) (*Claims, error) {
	scheme, value, found := strings.Cut(tokenString, " ")
	if !found || scheme != TokenScheme || value == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
