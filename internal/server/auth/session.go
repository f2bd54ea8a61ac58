package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the signed session identifier.
const SessionCookieName = "armory_session"

// SessionStore associates a server-issued session identifier, delivered to
// the client as a cookie, with the token minted at login. It is the single
// source of truth for "is this client logged in", independent of token
// expiry.
type SessionStore interface {
	// Create allocates a session holding token and sets the session cookie
	// on the response.
	Create(w http.ResponseWriter, token string) error

	// Read resolves the request's session cookie to the stored token.
	// The second return is false when there is no live session.
	Read(r *http.Request) (string, bool)

	// Destroy removes the session and instructs the client to drop the
	// cookie. Destroying an absent session is not an error.
	Destroy(w http.ResponseWriter, r *http.Request)
}

type sessionEntry struct {
	token   string
	expires time.Time
}

// MemorySessionStore keeps sessions in a mutex-guarded map, suitable for a
// single server instance. The cookie value is the session id plus an HMAC
// over it, so a forged id is rejected before the map lookup.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry

	secret []byte
	maxAge time.Duration
	secure bool

	now func() time.Time // test seam
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore returns an empty store. Sessions expire maxAge after
// creation; secret signs the cookie value; secure marks the cookie
// transport-secure (off by default in development configs).
func NewMemorySessionStore(secret []byte, maxAge time.Duration, secure bool) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]sessionEntry),
		secret:   secret,
		maxAge:   maxAge,
		secure:   secure,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(w http.ResponseWriter, token string) error {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	// Opportunistic sweep keeps abandoned sessions from accumulating.
	for k, e := range s.sessions {
		if now.After(e.expires) {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = sessionEntry{token: token, expires: now.Add(s.maxAge)}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   int(s.maxAge.Seconds()),
	})
	return nil
}

func (s *MemorySessionStore) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, ok := s.unsign(c.Value)
	if !ok {
		return "", false
	}

	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expires) {
		return "", false
	}
	return e.token, true
}

func (s *MemorySessionStore) Destroy(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, ok := s.unsign(c.Value); ok {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

func (s *MemorySessionStore) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *MemorySessionStore) unsign(value string) (string, bool) {
	id, sig, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return id, true
}
