// Package auth implements the credential-validation core: Basic-Auth
// decoding and authentication, OAuth token-request parsing, scope
// resolution, and the client-credentials flow.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
)

// basicScheme is the literal scheme token a Basic header must begin with.
const basicScheme = "Basic "

// ErrMalformedBasicHeader covers every Basic-Auth decode failure. Callers
// collapse it into a generic client error; the specific violation is not
// surfaced.
var ErrMalformedBasicHeader = errors.New("malformed basic authorization header")

// DecodeBasicAuth parses an HTTP Basic Authorization header value into a
// credential pair. The value must begin with "Basic ", the remainder must
// be valid base64, and the decoded payload must contain exactly one ':'
// with a non-empty username. An empty password is permitted.
func DecodeBasicAuth(headerValue string) (username, password string, err error) {
	if !strings.HasPrefix(headerValue, basicScheme) {
		return "", "", ErrMalformedBasicHeader
	}

	decoded, derr := base64.StdEncoding.DecodeString(headerValue[len(basicScheme):])
	if derr != nil {
		return "", "", ErrMalformedBasicHeader
	}

	payload := string(decoded)
	if strings.Count(payload, ":") != 1 {
		return "", "", ErrMalformedBasicHeader
	}

	username, password, _ = strings.Cut(payload, ":")
	if username == "" {
		return "", "", ErrMalformedBasicHeader
	}
	return username, password, nil
}

// BasicAuthenticator validates credential pairs against the user directory.
// Pure per call: no internal mutable state, safe for concurrent use.
type BasicAuthenticator struct {
	users  interfaces.UserDirectory
	hasher *secrets.Hasher
	logger *common.Logger
}

// NewBasicAuthenticator wires the authenticator to its directory port.
func NewBasicAuthenticator(users interfaces.UserDirectory, hasher *secrets.Hasher, logger *common.Logger) *BasicAuthenticator {
	return &BasicAuthenticator{users: users, hasher: hasher, logger: logger}
}

// Authenticate checks the request against the directory. Unknown users and
// wrong passwords produce the same result; the unknown-user path burns a
// dummy verification so its cost matches the found-user path. Disabled
// accounts are rejected before any hash comparison.
func (a *BasicAuthenticator) Authenticate(ctx context.Context, req models.AuthenticationRequest) models.AuthenticationResult {
	username := models.NormalizeID(req.Username)
	masked := common.MaskIdentifier(username)

	user, err := a.users.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			a.logger.Error().Err(err).Str("username", masked).Msg("User directory lookup failed")
		}
		a.hasher.DummyVerify()
		a.audit(masked, false, "user not found")
		return models.AuthenticationResult{Allowed: false, Username: username, Reason: models.ReasonInvalidCredentials}
	}

	if !user.IsActive() {
		a.audit(masked, false, "account disabled")
		return models.AuthenticationResult{Allowed: false, Username: username, Reason: models.ReasonAccountDisabled}
	}

	ok, err := a.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		a.audit(masked, false, "password mismatch")
		return models.AuthenticationResult{Allowed: false, Username: username, Reason: models.ReasonInvalidCredentials}
	}

	a.audit(masked, true, "")
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return models.AuthenticationResult{Allowed: true, Username: user.Username, Roles: roles}
}

// audit emits the authentication audit record. Only the masked username
// appears; passwords and hashes never do.
func (a *BasicAuthenticator) audit(maskedUsername string, allowed bool, cause string) {
	event := a.logger.Info().
		Str("username", maskedUsername).
		Bool("allowed", allowed)
	if cause != "" {
		event = event.Str("cause", cause)
	}
	event.Msg("Basic authentication")
}
