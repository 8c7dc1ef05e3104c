package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/warden/internal/app"
	"github.com/bobmcallan/warden/internal/auth"
	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
	"github.com/bobmcallan/warden/internal/token"
)

// memDirectory is an in-memory DirectoryStore for handler tests.
type memDirectory struct {
	users   map[string]*models.User
	clients map[string]*models.OAuthClient
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:   make(map[string]*models.User),
		clients: make(map[string]*models.OAuthClient),
	}
}

func (m *memDirectory) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := m.users[models.NormalizeID(username)]; ok {
		return user, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memDirectory) FindClientByID(_ context.Context, clientID string) (*models.OAuthClient, error) {
	if client, ok := m.clients[models.NormalizeID(clientID)]; ok {
		return client, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memDirectory) SaveUser(_ context.Context, user *models.User) error {
	m.users[models.NormalizeID(user.Username)] = user
	return nil
}

func (m *memDirectory) DeleteUser(_ context.Context, username string) error {
	delete(m.users, models.NormalizeID(username))
	return nil
}

func (m *memDirectory) ListUsers(_ context.Context) ([]string, error) {
	var names []string
	for name := range m.users {
		names = append(names, name)
	}
	return names, nil
}

func (m *memDirectory) SaveClient(_ context.Context, client *models.OAuthClient) error {
	m.clients[models.NormalizeID(client.ClientID)] = client
	return nil
}

func (m *memDirectory) DeleteClient(_ context.Context, clientID string) error {
	delete(m.clients, models.NormalizeID(clientID))
	return nil
}

func (m *memDirectory) ListClients(_ context.Context) ([]string, error) {
	var ids []string
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memDirectory) Close() error { return nil }

// memManager implements interfaces.StorageManager over memDirectory.
type memManager struct {
	directory *memDirectory
}

func (m *memManager) Directory() interfaces.DirectoryStore { return m.directory }
func (m *memManager) Close() error                         { return nil }

var testHashParams = secrets.Params{
	MemoryKB:    8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// newTestServer builds a server over an in-memory directory pre-seeded with
// one user and one client. The returned directory can be mutated per test.
func newTestServer(t *testing.T) (*Server, *memDirectory) {
	t.Helper()

	config := common.NewDefaultConfig()
	config.RateLimit.RequestsPerSecond = 1000
	config.RateLimit.Burst = 1000

	logger := common.NewSilentLogger()
	hasher := secrets.NewHasher(testHashParams)

	directory := newMemDirectory()

	passwordHash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	directory.users["alice"] = &models.User{
		Username:     "alice",
		PasswordHash: passwordHash,
		Status:       models.UserStatusActive,
		Roles:        []string{"admin"},
	}

	secretHash, err := hasher.Hash("s3cr3t")
	require.NoError(t, err)
	directory.clients["acme"] = &models.OAuthClient{
		ClientID:               "acme",
		ClientSecretHash:       secretHash,
		Status:                 models.ClientStatusActive,
		AllowedScopes:          []string{"read", "write"},
		AllowedGrantTypes:      []string{models.GrantTypeClientCredentials},
		TokenExpirationSeconds: 3600,
	}

	tokens, err := token.NewService(config.Auth.Issuer, config.Auth.Audience, []byte(config.Auth.JWTSecret))
	require.NoError(t, err)

	a := &app.App{
		Config:      config,
		Logger:      logger,
		Storage:     &memManager{directory: directory},
		Hasher:      hasher,
		Tokens:      tokens,
		BasicAuth:   auth.NewBasicAuthenticator(directory, hasher, logger),
		OAuthFlow:   auth.NewClientCredentialsAuthenticator(directory, hasher, tokens, logger, time.Hour),
		StartupTime: time.Now(),
	}

	return NewServer(a), directory
}
