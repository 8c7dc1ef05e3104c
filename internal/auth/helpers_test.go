package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
)

// testHashParams keeps argon2 cheap enough for unit tests.
var testHashParams = secrets.Params{
	MemoryKB:    8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestHasher() *secrets.Hasher {
	return secrets.NewHasher(testHashParams)
}

func mustHash(t *testing.T, hasher *secrets.Hasher, secret string) string {
	t.Helper()
	hashed, err := hasher.Hash(secret)
	require.NoError(t, err)
	return hashed
}

// memDirectory is an in-memory user/client directory for tests. Keys are
// expected pre-normalized, matching how persistent stores index records.
type memDirectory struct {
	users    map[string]*models.User
	clients  map[string]*models.OAuthClient
	failWith error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:   make(map[string]*models.User),
		clients: make(map[string]*models.OAuthClient),
	}
}

func (m *memDirectory) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	user, ok := m.users[username]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return user, nil
}

func (m *memDirectory) FindClientByID(_ context.Context, clientID string) (*models.OAuthClient, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	client, ok := m.clients[clientID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return client, nil
}

var errDirectoryDown = errors.New("directory unavailable")

func silentLogger() *common.Logger {
	return common.NewSilentLogger()
}
