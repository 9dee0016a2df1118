// internal/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/palacegame/palace/internal/auth"
	"github.com/palacegame/palace/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders a command rejection. Typed engine failures map onto
// HTTP statuses; anything else is an internal error.
func writeError(w http.ResponseWriter, err error) {
	f, ok := engine.AsFailure(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, statusForFailure(f.Code), map[string]string{
		"error": f.Msg,
		"code":  string(f.Code),
	})
}

func statusForFailure(code engine.FailureCode) int {
	switch code {
	case engine.NotFound:
		return http.StatusNotFound
	case engine.Forbidden:
		return http.StatusForbidden
	case engine.PhaseViolation, engine.ResourceExhausted:
		return http.StatusConflict
	case engine.InvalidSelection:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body."})
		return false
	}
	return true
}

// bearerToken pulls the session token from the Authorization header, falling
// back to the "token" query parameter for websocket handshakes.
func bearerToken(r *http.Request) string {
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return tok
	}
	return r.URL.Query().Get("token")
}

// authedPlayer resolves the acting player from the request's session token.
// Command endpoints never trust a client-asserted id.
func authedPlayer(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tok := bearerToken(r)
	if tok == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing session token."})
		return uuid.Nil, false
	}
	id, err := auth.AuthenticateJWT(tok)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid session token."})
		return uuid.Nil, false
	}
	return id, true
}
