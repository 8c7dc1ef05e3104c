package interfaces

import (
	"context"

	"github.com/bobmcallan/warden/internal/models"
)

// BasicAuthenticator validates HTTP Basic credential pairs against the
// user directory. Implementations are stateless and safe for concurrent
// use; failures are reported in the result, never as errors.
type BasicAuthenticator interface {
	Authenticate(ctx context.Context, req models.AuthenticationRequest) models.AuthenticationResult
}

// TokenIssuer runs the OAuth2 client-credentials flow. A nil OAuthError
// means success.
type TokenIssuer interface {
	IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, *models.OAuthError)
}

// TokenIntrospector reports whether a token is active and, if so, its
// claims. An invalid token yields Active=false and nothing else.
type TokenIntrospector interface {
	Introspect(token string) *models.Introspection
}
