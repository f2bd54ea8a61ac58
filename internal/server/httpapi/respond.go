package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/armoryhq/armory/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError translates a service error into the wire status and message.
// notFound carries the resource-specific 404 text; every other message is
// fixed so callers cannot fingerprint the failure beyond its class.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{"Missing required fields."})
	case errors.Is(err, common.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{"Access denied. No token provided."})
	case errors.Is(err, common.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{"Invalid token."})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{"Invalid email or password."})
	case errors.Is(err, common.ErrorForbiddenField):
		writeJSON(w, http.StatusForbidden, errorBody{"Forbidden field"})
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{"Unauthorized access."})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{notFound})
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{"Internal server error"})
	}
}
