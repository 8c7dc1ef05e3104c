// Package directorydb implements the credential directory using BadgerHold.
// It holds user accounts and OAuth clients in a single embedded database.
package directorydb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
)

// Store implements interfaces.DirectoryStore using BadgerHold. Records are
// keyed by their normalized identifier, so lookups never need a scan.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the directory database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Directory db opened")
	return &Store{db: db, logger: logger}, nil
}

// --- Users ---

func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.Get(models.NormalizeID(username), &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user lookup: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	key := models.NormalizeID(user.Username)
	if key == "" {
		return fmt.Errorf("username must not be empty")
	}
	user.Username = key

	now := time.Now()
	var existing models.User
	if err := s.db.Get(key, &existing); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.ModifiedAt = now

	if err := s.db.Upsert(key, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.logger.Debug().Str("username", common.MaskIdentifier(key)).Msg("User saved")
	return nil
}

func (s *Store) DeleteUser(_ context.Context, username string) error {
	key := models.NormalizeID(username)
	if err := s.db.Delete(key, models.User{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	var users []models.User
	if err := s.db.Find(&users, nil); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names, nil
}

// --- OAuth clients ---

func (s *Store) FindClientByID(_ context.Context, clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Get(models.NormalizeID(clientID), &client); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("client lookup: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (s *Store) SaveClient(_ context.Context, client *models.OAuthClient) error {
	key := models.NormalizeID(client.ClientID)
	if key == "" {
		return fmt.Errorf("client id must not be empty")
	}
	client.ClientID = key

	now := time.Now()
	var existing models.OAuthClient
	if err := s.db.Get(key, &existing); err == nil {
		client.CreatedAt = existing.CreatedAt
	} else if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.ModifiedAt = now

	if err := s.db.Upsert(key, client); err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	s.logger.Debug().Str("client_id", common.MaskIdentifier(key)).Msg("Client saved")
	return nil
}

func (s *Store) DeleteClient(_ context.Context, clientID string) error {
	key := models.NormalizeID(clientID)
	if err := s.db.Delete(key, models.OAuthClient{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (s *Store) ListClients(_ context.Context) ([]string, error) {
	var clients []models.OAuthClient
	if err := s.db.Find(&clients, nil); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ClientID
	}
	return ids, nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check
var _ interfaces.DirectoryStore = (*Store)(nil)
