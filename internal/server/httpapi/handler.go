package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/armoryhq/armory/internal/common"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", common.ErrorValidation)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

// queryLimit reads the optional ?limit= parameter; absent means no limit.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, common.ErrorValidation
	}
	return limit, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			s.respondError(w, r, err, "")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth pipeline ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err, "")
		return
	}

	user, err := s.users.Register(r.Context(), body.Email, body.Password, body.Username)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err, "")
		return
	}

	user, token, err := s.users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	if err := s.sessions.Create(w, token); err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// handleIdentity echoes the verified claims, the authenticated "who am I".
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.respondError(w, r, common.ErrMissingToken, "")
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

// --- users ---

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		s.respondError(w, r, err, "")
		return
	}

	rec, err := s.users.Update(r.Context(), claims.UserID, id, fields)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	if err := s.users.Delete(r.Context(), claims.UserID, id); err != nil {
		s.respondError(w, r, err, "User not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- loadouts ---

func (s *Server) handleListLoadouts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	recs, err := s.loadouts.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, "Loadouts not found.")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetLoadout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	rec, err := s.loadouts.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateLoadout(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		s.respondError(w, r, err, "")
		return
	}

	rec, err := s.loadouts.Create(r.Context(), claims.UserID, fields)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateLoadout(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		s.respondError(w, r, err, "")
		return
	}

	rec, err := s.loadouts.Update(r.Context(), claims.UserID, id, fields)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteLoadout(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	if err := s.loadouts.Delete(r.Context(), claims.UserID, id); err != nil {
		s.respondError(w, r, err, "Loadout not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- catalog ---

var catalogNotFound = map[string]string{
	"weapon": "Weapon not found.",
	"armor":  "Armor not found.",
	"skill":  "Skill not found.",
}

func (s *Server) handleCatalogList(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r)
		if err != nil {
			s.respondError(w, r, err, "")
			return
		}
		recs, err := s.catalog.List(r.Context(), resource, limit)
		if err != nil {
			s.respondError(w, r, err, catalogNotFound[resource])
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) handleCatalogGet(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.respondError(w, r, err, catalogNotFound[resource])
			return
		}
		rec, err := s.catalog.Get(r.Context(), resource, id)
		if err != nil {
			s.respondError(w, r, err, catalogNotFound[resource])
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
