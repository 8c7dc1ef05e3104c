// Package surrealdb implements the credential directory on a SurrealDB
// instance, for deployments that want the directory shared across nodes
// rather than embedded.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
)

// Store implements interfaces.DirectoryStore against SurrealDB. Users live
// in the "user" table, clients in "oauth_client", keyed by normalized id.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects to SurrealDB, selects the namespace/database, and
// ensures the directory tables exist.
func NewStore(logger *common.Logger, config *common.StorageConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// SurrealDB v3 errors on querying tables that do not exist yet.
	for _, table := range []string{"user", "oauth_client"} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB directory connected")

	return &Store{db: db, logger: logger}, nil
}

// newStoreWithDB wraps an already-connected database; used by tests.
func newStoreWithDB(db *surrealdb.DB, logger *common.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// surrealUser mirrors models.User with the hash made persistable. The
// public model excludes the hash from JSON, so the store carries it in a
// private record type instead of weakening the model's tag.
type surrealUser struct {
	Username     string            `json:"username"`
	PasswordHash string            `json:"password_hash"`
	Status       models.UserStatus `json:"status"`
	Roles        []string          `json:"roles,omitempty"`
	CreatedAt    string            `json:"created_at,omitempty"`
	ModifiedAt   string            `json:"modified_at,omitempty"`
}

type surrealClient struct {
	ClientID               string              `json:"client_id"`
	ClientSecretHash       string              `json:"client_secret_hash"`
	Status                 models.ClientStatus `json:"status"`
	AllowedScopes          []string            `json:"allowed_scopes,omitempty"`
	AllowedGrantTypes      []string            `json:"allowed_grant_types,omitempty"`
	TokenExpirationSeconds int                 `json:"token_expiration_seconds,omitempty"`
	Description            string              `json:"description,omitempty"`
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	record, err := surrealdb.Select[surrealUser](ctx, s.db, surrealmodels.NewRecordID("user", models.NormalizeID(username)))
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if record == nil || record.Username == "" {
		return nil, fmt.Errorf("user lookup: %w", interfaces.ErrNotFound)
	}
	return &models.User{
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		Status:       record.Status,
		Roles:        record.Roles,
	}, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	key := models.NormalizeID(user.Username)
	if key == "" {
		return fmt.Errorf("username must not be empty")
	}

	record := surrealUser{
		Username:     key,
		PasswordHash: user.PasswordHash,
		Status:       user.Status,
		Roles:        user.Roles,
	}

	sql := "UPSERT type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": key, "user": record}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]surrealUser](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save user after retries: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	_, err := surrealdb.Delete[surrealUser](ctx, s.db, surrealmodels.NewRecordID("user", models.NormalizeID(username)))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	list, err := surrealdb.Select[[]surrealUser](ctx, s.db, surrealmodels.Table("user"))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var names []string
	if list != nil {
		for _, u := range *list {
			if u.Username != "" {
				names = append(names, u.Username)
			}
		}
	}
	return names, nil
}

func (s *Store) FindClientByID(ctx context.Context, clientID string) (*models.OAuthClient, error) {
	record, err := surrealdb.Select[surrealClient](ctx, s.db, surrealmodels.NewRecordID("oauth_client", models.NormalizeID(clientID)))
	if err != nil {
		return nil, fmt.Errorf("failed to select client: %w", err)
	}
	if record == nil || record.ClientID == "" {
		return nil, fmt.Errorf("client lookup: %w", interfaces.ErrNotFound)
	}
	return &models.OAuthClient{
		ClientID:               record.ClientID,
		ClientSecretHash:       record.ClientSecretHash,
		Status:                 record.Status,
		AllowedScopes:          record.AllowedScopes,
		AllowedGrantTypes:      record.AllowedGrantTypes,
		TokenExpirationSeconds: record.TokenExpirationSeconds,
		Description:            record.Description,
	}, nil
}

func (s *Store) SaveClient(ctx context.Context, client *models.OAuthClient) error {
	key := models.NormalizeID(client.ClientID)
	if key == "" {
		return fmt.Errorf("client id must not be empty")
	}

	record := surrealClient{
		ClientID:               key,
		ClientSecretHash:       client.ClientSecretHash,
		Status:                 client.Status,
		AllowedScopes:          client.AllowedScopes,
		AllowedGrantTypes:      client.AllowedGrantTypes,
		TokenExpirationSeconds: client.TokenExpirationSeconds,
		Description:            client.Description,
	}

	sql := "UPSERT type::record('oauth_client', $id) CONTENT $client"
	vars := map[string]any{"id": key, "client": record}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]surrealClient](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save client after retries: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	_, err := surrealdb.Delete[surrealClient](ctx, s.db, surrealmodels.NewRecordID("oauth_client", models.NormalizeID(clientID)))
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]string, error) {
	list, err := surrealdb.Select[[]surrealClient](ctx, s.db, surrealmodels.Table("oauth_client"))
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	var ids []string
	if list != nil {
		for _, c := range *list {
			if c.ClientID != "" {
				ids = append(ids, c.ClientID)
			}
		}
	}
	return ids, nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// Compile-time check
var _ interfaces.DirectoryStore = (*Store)(nil)
