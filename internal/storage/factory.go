// Package storage provides the directory store factory and seed loading.
package storage

import (
	"fmt"

	"github.com/bobmcallan/warden/internal/common"
	"github.com/bobmcallan/warden/internal/interfaces"
	"github.com/bobmcallan/warden/internal/storage/directorydb"
	"github.com/bobmcallan/warden/internal/storage/surrealdb"
)

// Driver constants.
const (
	DriverBadger  = "badger"
	DriverSurreal = "surreal"
)

// Manager implements interfaces.StorageManager over whichever backend the
// configuration selects.
type Manager struct {
	directory interfaces.DirectoryStore
	logger    *common.Logger
}

// NewManager creates a storage manager. Supported drivers: "badger"
// (default, embedded) and "surreal" (shared).
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverBadger
	}

	var (
		directory interfaces.DirectoryStore
		err       error
	)
	switch driver {
	case DriverBadger:
		directory, err = directorydb.NewStore(logger, config.Storage.Path)
	case DriverSurreal:
		directory, err = surrealdb.NewStore(logger, &config.Storage)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: badger, surreal)", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create directory store: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("Storage manager initialized")
	return &Manager{directory: directory, logger: logger}, nil
}

func (m *Manager) Directory() interfaces.DirectoryStore {
	return m.directory
}

func (m *Manager) Close() error {
	return m.directory.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
