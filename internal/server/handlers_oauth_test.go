package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/warden/internal/models"
)

func postForm(t *testing.T, srv *Server, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeTokenResponse(t *testing.T, rec *httptest.ResponseRecorder) models.TokenResponse {
	t.Helper()
	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeOAuthError(t *testing.T, rec *httptest.ResponseRecorder) models.OAuthError {
	t.Helper()
	var oerr models.OAuthError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &oerr))
	return oerr
}

func TestTokenEndpointFormCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
		"scope":         {"read write"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))

	resp := decodeTokenResponse(t, rec)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "read write", resp.Scope)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestTokenEndpointBasicHeaderCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("acme:s3cr3t")))

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
	}, header)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeTokenResponse(t, rec)
	assert.Equal(t, "read write", resp.Scope)
}

func TestTokenEndpointWrongSecretAndUnknownClientMatch(t *testing.T) {
	srv, _ := newTestServer(t)

	wrongSecret := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"acme"},
		"client_secret": {"nope"},
	}, nil)
	unknown := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"ghost"},
		"client_secret": {"nope"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongSecret.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongSecret.Body.String(), unknown.Body.String(),
		"wrong secret and unknown client must be indistinguishable")
	assert.Equal(t, models.ErrInvalidClient, decodeOAuthError(t, wrongSecret).Code)
}

func TestTokenEndpointUnsupportedGrantType(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrUnsupportedGrantType, decodeOAuthError(t, rec).Code)
}

func TestTokenEndpointScopeExceeded(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
		"scope":         {"admin"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidScope, decodeOAuthError(t, rec).Code)
}

func TestTokenEndpointDisabledClient(t *testing.T) {
	srv, directory := newTestServer(t)
	directory.clients["acme"].Status = models.ClientStatusSuspended

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrUnauthorizedClient, decodeOAuthError(t, rec).Code)
}

func TestTokenEndpointMissingGrantType(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/token", url.Values{
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidRequest, decodeOAuthError(t, rec).Code)
}

func TestTokenEndpointRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/oauth/token", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIntrospectEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	issued := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"acme"},
		"client_secret": {"s3cr3t"},
		"scope":         {"read"},
	}, nil)
	require.Equal(t, http.StatusOK, issued.Code)
	accessToken := decodeTokenResponse(t, issued).AccessToken

	rec := postForm(t, srv, "/oauth/introspect", url.Values{"token": {accessToken}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var intro models.Introspection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intro))
	assert.True(t, intro.Active)
	assert.Equal(t, "acme", intro.ClientID)
	assert.Equal(t, "read", intro.Scope)
}

func TestIntrospectEndpointInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/introspect", url.Values{"token": {"not-a-token"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active":false}`, rec.Body.String())
}

func TestIntrospectEndpointMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(t, srv, "/oauth/introspect", url.Values{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidRequest, decodeOAuthError(t, rec).Code)
}

func TestMetadataEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	req.Host = "auth.example.com"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "warden-server", meta["issuer"])
	assert.Equal(t, "http://auth.example.com/oauth/token", meta["token_endpoint"])
	assert.Equal(t, "http://auth.example.com/oauth/introspect", meta["introspection_endpoint"])
	assert.Contains(t, meta["grant_types_supported"], "client_credentials")
}

func TestRegisterEndpointDisabledByDefault(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(`{"client_id":"newclient"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterEndpointIssuesUsableCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.app.Config.Auth.EnableRegistration = true

	body := `{"client_id":"NewClient","allowed_scopes":["read"],"token_expiration_seconds":600}`
	req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "newclient", created.ClientID)
	require.NotEmpty(t, created.ClientSecret)

	// The returned secret must obtain a token.
	tokenRec := postForm(t, srv, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {created.ClientID},
		"client_secret": {created.ClientSecret},
	}, nil)
	require.Equal(t, http.StatusOK, tokenRec.Code, tokenRec.Body.String())
	assert.Equal(t, 600, decodeTokenResponse(t, tokenRec).ExpiresIn)
}

func TestRegisterEndpointConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.app.Config.Auth.EnableRegistration = true

	req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(`{"client_id":"acme"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
