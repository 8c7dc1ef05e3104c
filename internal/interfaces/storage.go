// Package interfaces defines service contracts for Warden
package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/warden/internal/models"
)

// ErrNotFound is returned by directory lookups when no entry exists for the
// given key. Callers use errors.Is to distinguish absence from backend
// failure; the two produce different audit records but identical responses.
var ErrNotFound = errors.New("not found")

// UserDirectory is the read-only port the Basic authenticator consumes.
// Usernames are normalized (trim + lowercase) before the call.
type UserDirectory interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// ClientDirectory is the read-only port the OAuth flow consumes.
// Client ids are normalized (trim + lowercase) before the call.
type ClientDirectory interface {
	FindClientByID(ctx context.Context, clientID string) (*models.OAuthClient, error)
}

// DirectoryStore is the full directory contract implemented by storage
// backends: the two read ports plus the provisioning operations used by
// seed loading and the registration endpoint.
type DirectoryStore interface {
	UserDirectory
	ClientDirectory

	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]string, error)

	SaveClient(ctx context.Context, client *models.OAuthClient) error
	DeleteClient(ctx context.Context, clientID string) error
	ListClients(ctx context.Context) ([]string, error)

	Close() error
}

// StorageManager owns backend lifecycle and exposes the directory store.
type StorageManager interface {
	Directory() DirectoryStore
	Close() error
}
