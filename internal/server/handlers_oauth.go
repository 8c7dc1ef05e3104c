package server

import (
	"net/http"

	"github.com/bobmcallan/warden/internal/auth"
	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
)

// handleOAuthToken handles POST /oauth/token, the client-credentials token
// endpoint (RFC 6749 §4.4). Client credentials come from the Basic header
// or the form body; the response is never cacheable.
func (s *Server) handleOAuthToken(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, models.NewOAuthError(models.ErrInvalidRequest, "invalid form data"))
		return
	}

	req, oerr := auth.ParseTokenRequest(r.Header.Get("Authorization"), r.PostForm)
	if oerr != nil {
		writeOAuthError(w, oerr)
		return
	}

	resp, oerr := s.app.OAuthFlow.IssueToken(r.Context(), req)
	if oerr != nil {
		writeOAuthError(w, oerr)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	WriteJSON(w, http.StatusOK, resp)
}

// handleOAuthIntrospect handles POST /oauth/introspect (RFC 7662 shape).
// Invalid tokens are a 200 with active=false, not an error.
func (s *Server) handleOAuthIntrospect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, models.NewOAuthError(models.ErrInvalidRequest, "invalid form data"))
		return
	}

	token := r.PostForm.Get("token")
	if token == "" {
		writeOAuthError(w, models.NewOAuthError(models.ErrInvalidRequest, "token is required"))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, s.app.Tokens.Introspect(token))
}

// handleOAuthMetadata handles GET /.well-known/oauth-authorization-server
// (RFC 8414). Endpoint URLs are derived from the incoming request so the
// document is correct behind any hostname.
func (s *Server) handleOAuthMetadata(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                s.app.Config.Auth.Issuer,
		"token_endpoint":                        base + "/oauth/token",
		"introspection_endpoint":                base + "/oauth/introspect",
		"grant_types_supported":                 []string{models.GrantTypeClientCredentials},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
	})
}

// clientRegistration is the request body for POST /oauth/register.
type clientRegistration struct {
	ClientID               string   `json:"client_id"`
	AllowedScopes          []string `json:"allowed_scopes"`
	TokenExpirationSeconds int      `json:"token_expiration_seconds"`
	Description            string   `json:"description"`
}

// handleOAuthRegister handles POST /oauth/register. Disabled unless the
// configuration opts in; the generated secret is returned exactly once and
// only its hash is stored.
func (s *Server) handleOAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !s.app.Config.Auth.EnableRegistration {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	var req clientRegistration
	if !DecodeJSON(w, r, &req) {
		return
	}

	clientID := models.NormalizeID(req.ClientID)
	if clientID == "" {
		WriteError(w, http.StatusBadRequest, "client_id is required")
		return
	}

	directory := s.app.Storage.Directory()
	if _, err := directory.FindClientByID(r.Context(), clientID); err == nil {
		WriteError(w, http.StatusConflict, "client already exists")
		return
	}

	secret, err := secrets.GenerateSecret(32)
	if err != nil {
		s.logger.Error().Err(err).Msg("Secret generation failed")
		WriteError(w, http.StatusInternalServerError, "failed to generate client secret")
		return
	}
	hash, err := s.app.Hasher.Hash(secret)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to hash client secret")
		return
	}

	client := &models.OAuthClient{
		ClientID:               clientID,
		ClientSecretHash:       hash,
		Status:                 models.ClientStatusActive,
		AllowedScopes:          req.AllowedScopes,
		AllowedGrantTypes:      []string{models.GrantTypeClientCredentials},
		TokenExpirationSeconds: req.TokenExpirationSeconds,
		Description:            req.Description,
	}
	if err := directory.SaveClient(r.Context(), client); err != nil {
		s.logger.Error().Err(err).Str("client_id", common.MaskIdentifier(clientID)).Msg("Client registration failed")
		WriteError(w, http.StatusInternalServerError, "failed to save client")
		return
	}

	s.logger.Info().Str("client_id", common.MaskIdentifier(clientID)).Msg("Client registered")

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"client_id":      clientID,
		"client_secret":  secret,
		"allowed_scopes": client.AllowedScopes,
	})
}
