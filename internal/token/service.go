// Package token issues and validates the signed, self-contained access
// tokens minted by the client-credentials flow.
//
// Tokens are HMAC-SHA256 JWTs and are never persisted server-side: expiry
// is the only lifecycle boundary. There is no revocation; adopters who
// need pre-expiry invalidation must put a deny-list in front of this
// service themselves.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bobmcallan/warden/internal/models"
)

// Service signs and verifies access tokens with a server-held symmetric
// secret. Stateless and safe for concurrent use.
type Service struct {
	issuer   string
	audience string
	secret   []byte
}

// NewService builds a token service. A missing signing secret is a
// misconfiguration and fails construction; nothing else does.
func NewService(issuer, audience string, secret []byte) (*Service, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token service requires a signing secret")
	}
	if issuer == "" {
		return nil, fmt.Errorf("token service requires an issuer")
	}
	return &Service{issuer: issuer, audience: audience, secret: secret}, nil
}

// Issue mints a signed token for the client. Scope entries are joined
// space-delimited; callers pass them already normalized. Each token carries
// a fresh uuid token id.
func (s *Service) Issue(clientID string, scope []string, expirationSeconds int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":       uuid.New().String(),
		"iss":       s.issuer,
		"aud":       s.audience,
		"sub":       clientID,
		"client_id": clientID,
		"scope":     strings.Join(scope, " "),
		"iat":       now.Unix(),
		"exp":       now.Add(time.Duration(expirationSeconds) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse verifies signature, expiry, issuer, audience, and the presence of
// every required claim. Any single fault invalidates the whole token.
func (s *Service) parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{"jti", "sub", "client_id", "scope", "iat"} {
		if _, ok := claims[required]; !ok {
			return nil, fmt.Errorf("missing required claim %q", required)
		}
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, fmt.Errorf("empty subject claim")
	}
	if _, ok := claims["scope"].(string); !ok {
		return nil, fmt.Errorf("malformed scope claim")
	}
	return claims, nil
}

// Validate reports whether the token is intact, unexpired, and complete.
func (s *Service) Validate(tokenString string) bool {
	_, err := s.parse(tokenString)
	return err == nil
}

// Claims returns the token's claim map. Only meaningful when the token
// validates; invalid tokens return an error and no claims.
func (s *Service) Claims(tokenString string) (jwt.MapClaims, error) {
	return s.parse(tokenString)
}

// Introspect returns the introspection view of a token. Invalid or expired
// tokens yield Active=false and nothing else, never partial claims.
func (s *Service) Introspect(tokenString string) *models.Introspection {
	claims, err := s.parse(tokenString)
	if err != nil {
		return &models.Introspection{Active: false}
	}

	clientID, _ := claims["client_id"].(string)
	scope, _ := claims["scope"].(string)
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	return &models.Introspection{
		Active:    true,
		ClientID:  clientID,
		Scope:     scope,
		TokenType: "Bearer",
		Exp:       int64(exp),
		Iat:       int64(iat),
	}
}
