package httpapi

import (
	"context"
	"net/http"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// authenticate resolves the session cookie to the stored token, verifies the
// token and threads the claims through the request context. A missing
// session and a bad token are reported distinctly, matching the pipeline the
// clients already expect.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.sessions.Read(r)
		if !ok {
			s.respondError(w, r, common.ErrMissingToken, "")
			return
		}

		claims, err := auth.VerifyToken(token, s.jwtSecret)
		if err != nil {
			s.respondError(w, r, common.ErrInvalidToken, "")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFrom returns the verified claims placed by authenticate.
func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}
