package server

import (
	"net/http"

	"github.com/bobmcallan/warden/internal/auth"
	"github.com/bobmcallan/warden/internal/models"
)

// handleAuthBasic handles POST /api/auth/basic. Credentials arrive either
// in an Authorization: Basic header or as a JSON body; the header wins when
// both are present. The response is 200 with the result when the pair is
// valid and 401 carrying the failure reason otherwise. The reason string
// never distinguishes unknown users from wrong passwords.
func (s *Server) handleAuthBasic(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.AuthenticationRequest

	if header := r.Header.Get("Authorization"); header != "" {
		username, password, err := auth.DecodeBasicAuth(header)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Malformed authorization header")
			return
		}
		req.Username = username
		req.Password = password
	} else {
		if !DecodeJSON(w, r, &req) {
			return
		}
	}

	if req.Username == "" {
		WriteError(w, http.StatusBadRequest, "username is required")
		return
	}

	result := s.app.BasicAuth.Authenticate(r.Context(), req)
	if !result.Allowed {
		WriteJSON(w, http.StatusUnauthorized, result)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
