package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/warden/internal/models"
)

func postBasic(t *testing.T, srv *Server, header, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/basic", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeAuthResult(t *testing.T, rec *httptest.ResponseRecorder) models.AuthenticationResult {
	t.Helper()
	var result models.AuthenticationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestAuthBasicHeaderSuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:correct horse"))
	rec := postBasic(t, srv, header, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeAuthResult(t, rec)
	assert.True(t, result.Allowed)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, []string{"admin"}, result.Roles)
}

func TestAuthBasicJSONBodySuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postBasic(t, srv, "", `{"username":"ALICE","password":"correct horse"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeAuthResult(t, rec)
	assert.True(t, result.Allowed)
	assert.Equal(t, "alice", result.Username)
}

func TestAuthBasicWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:wrong horse"))
	rec := postBasic(t, srv, header, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	result := decodeAuthResult(t, rec)
	assert.False(t, result.Allowed)
	assert.Equal(t, models.ReasonInvalidCredentials, result.Reason)
}

func TestAuthBasicUnknownUserMatchesWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	wrongPass := postBasic(t, srv, "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:wrong")), "")
	unknown := postBasic(t, srv, "Basic "+base64.StdEncoding.EncodeToString([]byte("mallory:wrong")), "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decodeAuthResult(t, wrongPass).Reason, decodeAuthResult(t, unknown).Reason)
}

func TestAuthBasicDisabledAccount(t *testing.T) {
	srv, directory := newTestServer(t)
	directory.users["alice"].Status = models.UserStatusDisabled

	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:correct horse"))
	rec := postBasic(t, srv, header, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ReasonAccountDisabled, decodeAuthResult(t, rec).Reason)
}

func TestAuthBasicMalformedHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postBasic(t, srv, "Basic not-base64!!!", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthBasicMissingCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postBasic(t, srv, "", `{"password":"something"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthBasicRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/basic", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthBasicResponseNeverCarriesHashes(t *testing.T) {
	srv, _ := newTestServer(t)

	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:correct horse"))
	rec := postBasic(t, srv, header, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")
	assert.NotContains(t, rec.Body.String(), "password")
}
