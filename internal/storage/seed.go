package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/models"
	"github.com/bobmcallan/warden/internal/secrets"
)

// seedFile is the on-disk TOML shape of a directory seed. Entries may carry
// either a plaintext credential (hashed at load time) or a pre-computed
// self-describing hash, never both required.
type seedFile struct {
	Users   []seedUser   `toml:"users"`
	Clients []seedClient `toml:"clients"`
}

type seedUser struct {
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	PasswordHash string   `toml:"password_hash"`
	Status       string   `toml:"status"`
	Roles        []string `toml:"roles"`
}

type seedClient struct {
	ClientID               string   `toml:"client_id"`
	ClientSecret           string   `toml:"client_secret"`
	ClientSecretHash       string   `toml:"client_secret_hash"`
	Status                 string   `toml:"status"`
	AllowedScopes          []string `toml:"allowed_scopes"`
	AllowedGrantTypes      []string `toml:"allowed_grant_types"`
	TokenExpirationSeconds int      `toml:"token_expiration_seconds"`
	Description            string   `toml:"description"`
}

// LoadSeed populates the directory from a TOML seed file. Existing entries
// are left untouched, so the seed is safe to apply on every startup. A
// missing path is a no-op.
func LoadSeed(ctx context.Context, path string, directory interfaces.DirectoryStore, hasher *secrets.Hasher, logger *common.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("Seed file not found, skipping")
			return nil
		}
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seed seedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	usersAdded := 0
	for _, entry := range seed.Users {
		added, err := seedOneUser(ctx, directory, hasher, entry)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", common.MaskIdentifier(models.NormalizeID(entry.Username)), err)
		}
		if added {
			usersAdded++
		}
	}

	clientsAdded := 0
	for _, entry := range seed.Clients {
		added, err := seedOneClient(ctx, directory, hasher, entry)
		if err != nil {
			return fmt.Errorf("seed client %s: %w", common.MaskIdentifier(models.NormalizeID(entry.ClientID)), err)
		}
		if added {
			clientsAdded++
		}
	}

	logger.Info().
		Int("users_added", usersAdded).
		Int("clients_added", clientsAdded).
		Str("path", path).
		Msg("Directory seed applied")
	return nil
}

func seedOneUser(ctx context.Context, directory interfaces.DirectoryStore, hasher *secrets.Hasher, entry seedUser) (bool, error) {
	username := models.NormalizeID(entry.Username)
	if username == "" {
		return false, fmt.Errorf("username must not be empty")
	}

	if _, err := directory.FindUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}

	hash, err := resolveHash(hasher, entry.Password, entry.PasswordHash)
	if err != nil {
		return false, err
	}

	status := models.UserStatus(entry.Status)
	if status == "" {
		status = models.UserStatusActive
	}

	return true, directory.SaveUser(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Status:       status,
		Roles:        entry.Roles,
	})
}

func seedOneClient(ctx context.Context, directory interfaces.DirectoryStore, hasher *secrets.Hasher, entry seedClient) (bool, error) {
	clientID := models.NormalizeID(entry.ClientID)
	if clientID == "" {
		return false, fmt.Errorf("client id must not be empty")
	}

	if _, err := directory.FindClientByID(ctx, clientID); err == nil {
		return false, nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}

	hash, err := resolveHash(hasher, entry.ClientSecret, entry.ClientSecretHash)
	if err != nil {
		return false, err
	}

	status := models.ClientStatus(entry.Status)
	if status == "" {
		status = models.ClientStatusActive
	}
	grantTypes := entry.AllowedGrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{models.GrantTypeClientCredentials}
	}

	return true, directory.SaveClient(ctx, &models.OAuthClient{
		ClientID:               clientID,
		ClientSecretHash:       hash,
		Status:                 status,
		AllowedScopes:          entry.AllowedScopes,
		AllowedGrantTypes:      grantTypes,
		TokenExpirationSeconds: entry.TokenExpirationSeconds,
		Description:            entry.Description,
	}))
}

// resolveHash prefers a pre-computed hash and otherwise hashes the
// plaintext. One of the two must be present.
func resolveHash(hasher *secrets.Hasher, plaintext, precomputed string) (string, error) {
	if precomputed != "" {
		return precomputed, nil
	}
	if plaintext == "" {
		return "", fmt.Errorf("entry needs a credential or a credential hash")
	}
	return hasher.Hash(plaintext)
}
