// Package app wires configuration, storage, and the authentication services
// into a single application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/warden/internal/auth"
	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/secrets"
	"github.com/bobmcallan/warden/internal/storage"
	"github.com/bobmcallan/warden/internal/token"
)

// App holds all initialized services and storage.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	Hasher      *secrets.Hasher
	Tokens      *token.Service
	BasicAuth   interfaces.BasicAuthenticator
	OAuthFlow   interfaces.TokenIssuer
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes storage, the hasher, the token
// service, and both authenticators. configPath may be empty, in which case
// WARDEN_CONFIG, then the binary directory, then config/warden.toml are
// tried in order.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("WARDEN_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "warden.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/warden.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig builds the application core from an already-validated
// configuration. Tests use this to inject temp-dir storage paths.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	hasher := secrets.NewHasher(secrets.Params{
		MemoryKB:    config.Auth.Hashing.MemoryKB,
		Iterations:  config.Auth.Hashing.Iterations,
		Parallelism: config.Auth.Hashing.Parallelism,
		SaltLength:  config.Auth.Hashing.SaltLength,
		KeyLength:   config.Auth.Hashing.KeyLength,
	})

	tokens, err := token.NewService(config.Auth.Issuer, config.Auth.Audience, []byte(config.Auth.JWTSecret))
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	directory := storageManager.Directory()

	if err := storage.LoadSeed(context.Background(), config.Seed.Path, directory, hasher, logger); err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to apply directory seed: %w", err)
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		Hasher:      hasher,
		Tokens:      tokens,
		BasicAuth:   auth.NewBasicAuthenticator(directory, hasher, logger),
		OAuthFlow:   auth.NewClientCredentialsAuthenticator(directory, hasher, tokens, logger, config.Auth.GetTokenExpiry()),
		StartupTime: time.Now(),
	}

	logger.Info().
		Str("issuer", config.Auth.Issuer).
		Str("storage_driver", config.Storage.Driver).
		Msg("Application initialized")

	return a, nil
}

// Close releases storage resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
