package auth

import (
	"sort"
	"strings"

	"github.com/bobmcallan/warden/internal/models"
)

// NormalizeScope splits a raw scope string on whitespace, drops empty
// entries, deduplicates by exact match, and sorts lexicographically. The
// result is the canonical form embedded in tokens and responses.
func NormalizeScope(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// validScopeToken restricts scope tokens to a safe character class.
func validScopeToken(token string) bool {
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == ':' || r == '/' || r == '-':
		default:
			return false
		}
	}
	return len(token) > 0
}

// ResolveScope computes the effective scope of a token request. An empty
// request resolves to the client's full allow-list. Otherwise every
// requested token must already be allowed; a single stranger fails the
// whole request, there are no partial grants.
func ResolveScope(requested string, allowed []string) ([]string, *models.OAuthError) {
	allowedNorm := NormalizeScope(strings.Join(allowed, " "))

	requestedNorm := NormalizeScope(requested)
	if len(requestedNorm) == 0 {
		return allowedNorm, nil
	}

	allowedSet := make(map[string]bool, len(allowedNorm))
	for _, s := range allowedNorm {
		allowedSet[s] = true
	}

	for _, s := range requestedNorm {
		if !validScopeToken(s) {
			return nil, models.NewOAuthError(models.ErrInvalidScope, "scope contains invalid characters")
		}
		if !allowedSet[s] {
			return nil, models.NewOAuthError(models.ErrInvalidScope, "requested scope exceeds the client's allowed scopes")
		}
	}
	return requestedNorm, nil
}
