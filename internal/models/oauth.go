package models

import "time"

// GrantTypeClientCredentials is the only grant type this server issues.
const GrantTypeClientCredentials = "client_credentials"

// ClientStatus is the lifecycle state of a registered OAuth client.
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusDisabled  ClientStatus = "disabled"
	ClientStatusSuspended ClientStatus = "suspended"
)

// OAuthClient represents a machine-to-machine client in the directory.
// Immutable once loaded. The secret hash is self-describing, same format
// as user password hashes.
type OAuthClient struct {
	ClientID               string       `json:"client_id"`
	ClientSecretHash       string       `json:"-"`
	Status                 ClientStatus `json:"status"`
	AllowedScopes          []string     `json:"allowed_scopes,omitempty"`
	AllowedGrantTypes      []string     `json:"allowed_grant_types,omitempty"`
	TokenExpirationSeconds int          `json:"token_expiration_seconds,omitempty"`
	Description            string       `json:"description,omitempty"`
	CreatedAt              time.Time    `json:"created_at"`
	ModifiedAt             time.Time    `json:"modified_at,omitempty"`
}

// IsActive reports whether the client may obtain tokens.
func (c *OAuthClient) IsActive() bool {
	return c.Status == ClientStatusActive
}

// AllowsGrantType reports whether the client is permitted the given grant.
func (c *OAuthClient) AllowsGrantType(grantType string) bool {
	for _, gt := range c.AllowedGrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// TokenRequest carries the parsed parameters of a token-endpoint call.
// Ephemeral: never persisted, never logged with the secret.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenResponse is the successful token-endpoint result (RFC 6749 §5.1).
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Scope       string    `json:"scope"`
	IssuedAt    time.Time `json:"-"`
}

// OAuth error codes (RFC 6749 §5.2).
const (
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidClient        = "invalid_client"
	ErrInvalidGrant         = "invalid_grant"
	ErrUnauthorizedClient   = "unauthorized_client"
	ErrUnsupportedGrantType = "unsupported_grant_type"
	ErrInvalidScope         = "invalid_scope"
	ErrServerError          = "server_error"
)

// OAuthError is the RFC 6749 error/error_description pair returned by every
// failed token-endpoint step.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// NewOAuthError builds an OAuthError with the given code and description.
func NewOAuthError(code, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}

// Introspection is the token-introspection result (RFC 7662 shape). For an
// invalid or expired token only Active=false is populated; the omitempty
// tags keep every other field out of the response.
type Introspection struct {
	Active    bool   `json:"active"`
	ClientID  string `json:"client_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
}
