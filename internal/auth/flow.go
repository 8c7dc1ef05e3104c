package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
	"github.com/bobmcallan/warden/internal/token"
)

// ClientCredentialsAuthenticator orchestrates the OAuth2 client-credentials
// flow: client authentication, scope negotiation, token issuance. Single
// pass, no persisted state.
type ClientCredentialsAuthenticator struct {
	clients       interfaces.ClientDirectory
	hasher        *secrets.Hasher
	tokens        *token.Service
	logger        *common.Logger
	defaultExpiry time.Duration
}

// NewClientCredentialsAuthenticator wires the flow to its collaborators.
// defaultExpiry applies to clients whose record carries no expiration.
func NewClientCredentialsAuthenticator(
	clients interfaces.ClientDirectory,
	hasher *secrets.Hasher,
	tokens *token.Service,
	logger *common.Logger,
	defaultExpiry time.Duration,
) *ClientCredentialsAuthenticator {
	if defaultExpiry <= 0 {
		defaultExpiry = time.Hour
	}
	return &ClientCredentialsAuthenticator{
		clients:       clients,
		hasher:        hasher,
		tokens:        tokens,
		logger:        logger,
		defaultExpiry: defaultExpiry,
	}
}

// IssueToken runs the flow. Unknown client and wrong secret both return
// the same invalid_client error so callers cannot enumerate client ids;
// the audit log records which it was. The unknown-client path burns a
// dummy verification to keep its cost uniform with the known path.
func (a *ClientCredentialsAuthenticator) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, *models.OAuthError) {
	if req.GrantType != models.GrantTypeClientCredentials {
		return nil, models.NewOAuthError(models.ErrUnsupportedGrantType, "grant_type must be 'client_credentials'")
	}

	clientID := models.NormalizeID(req.ClientID)
	masked := common.MaskIdentifier(clientID)

	client, err := a.clients.FindClientByID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			a.logger.Error().Err(err).Str("client_id", masked).Msg("Client directory lookup failed")
			return nil, models.NewOAuthError(models.ErrServerError, "failed to look up client")
		}
		a.hasher.DummyVerify()
		a.audit(masked, false, "client not found")
		return nil, invalidClient()
	}

	ok, verr := a.hasher.Verify(req.ClientSecret, client.ClientSecretHash)
	if verr != nil || !ok {
		a.audit(masked, false, "secret mismatch")
		return nil, invalidClient()
	}

	if !client.IsActive() {
		a.audit(masked, false, "client "+string(client.Status))
		return nil, models.NewOAuthError(models.ErrUnauthorizedClient, "client is not active")
	}

	if !client.AllowsGrantType(models.GrantTypeClientCredentials) {
		a.audit(masked, false, "grant type not allowed")
		return nil, models.NewOAuthError(models.ErrUnauthorizedClient, "client is not authorized for this grant type")
	}

	scope, serr := ResolveScope(req.Scope, client.AllowedScopes)
	if serr != nil {
		a.audit(masked, false, "scope rejected")
		return nil, serr
	}

	// The client record is authoritative for expiry; the request carries
	// no override.
	expiresIn := client.TokenExpirationSeconds
	if expiresIn <= 0 {
		expiresIn = int(a.defaultExpiry.Seconds())
	}

	accessToken, terr := a.tokens.Issue(client.ClientID, scope, expiresIn)
	if terr != nil {
		a.logger.Error().Err(terr).Str("client_id", masked).Msg("Token signing failed")
		return nil, models.NewOAuthError(models.ErrServerError, "failed to issue token")
	}

	a.audit(masked, true, "")
	return &models.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       strings.Join(scope, " "),
		IssuedAt:    time.Now(),
	}, nil
}

// invalidClient builds the merged unknown-client / wrong-secret error.
// Identical shape for both causes.
func invalidClient() *models.OAuthError {
	return models.NewOAuthError(models.ErrInvalidClient, "client authentication failed")
}

// audit emits the token-issuance audit record with a masked client id.
func (a *ClientCredentialsAuthenticator) audit(maskedClientID string, granted bool, cause string) {
	event := a.logger.Info().
		Str("client_id", maskedClientID).
		Bool("granted", granted)
	if cause != "" {
		event = event.Str("cause", cause)
	}
	event.Msg("Client credentials grant")
}
