package auth

import (
	"net/url"

	"github.com/bobmcallan/warden/internal/models"
)

// ParseTokenRequest extracts a TokenRequest from a token-endpoint call.
// Client credentials may arrive in the Basic Authorization header or in
// the form body (client_id/client_secret); when both are present the
// header wins. grant_type and scope are always read from the form
// regardless of where the credentials came from.
//
// A malformed Basic header or a missing grant_type yields invalid_request.
func ParseTokenRequest(authorizationHeader string, form url.Values) (*models.TokenRequest, *models.OAuthError) {
	req := &models.TokenRequest{
		GrantType: form.Get("grant_type"),
		Scope:     form.Get("scope"),
	}

	if authorizationHeader != "" {
		clientID, clientSecret, err := DecodeBasicAuth(authorizationHeader)
		if err != nil {
			return nil, models.NewOAuthError(models.ErrInvalidRequest, "malformed authorization header")
		}
		req.ClientID = clientID
		req.ClientSecret = clientSecret
	} else {
		req.ClientID = form.Get("client_id")
		req.ClientSecret = form.Get("client_secret")
	}

	if req.GrantType == "" {
		return nil, models.NewOAuthError(models.ErrInvalidRequest, "grant_type is required")
	}
	if req.ClientID == "" {
		return nil, models.NewOAuthError(models.ErrInvalidRequest, "client credentials are required")
	}

	return req, nil
}
