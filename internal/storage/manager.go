// Package storage provides the top-level StorageManager that coordinates
// the holdings and history databases.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/storage/historydb"
	"github.com/calebmills/argus/internal/storage/holdingsdb"
)

// Manager implements interfaces.StorageManager over two BadgerHold databases.
type Manager struct {
	holdings *holdingsdb.Store
	history  *historydb.Store
	dataPath string
	logger   *common.Logger
}

// NewManager opens both storage areas under the configured data path.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	holdingsPath := filepath.Join(config.Storage.Path, "holdings")
	historyPath := filepath.Join(config.Storage.Path, "history")

	holdingsStore, err := holdingsdb.NewStore(logger, holdingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create holdings store: %w", err)
	}

	historyStore, err := historydb.NewStore(logger, historyPath)
	if err != nil {
		holdingsStore.Close()
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}

	logger.Info().
		Str("holdings", holdingsPath).
		Str("history", historyPath).
		Msg("Storage manager initialized (2 areas)")

	return &Manager{
		holdings: holdingsStore,
		history:  historyStore,
		dataPath: config.Storage.Path,
		logger:   logger,
	}, nil
}

func (m *Manager) Holdings() interfaces.HoldingsStore {
	return m.holdings
}

func (m *Manager) History() interfaces.HistoryStore {
	return m.history
}

func (m *Manager) DataPath() string {
	return m.dataPath
}

// RunGC compacts the value logs of both databases. Badger reports ErrNoRewrite
// once a pass finds nothing worth rewriting.
func (m *Manager) RunGC() error {
	for _, db := range []*badgerhold.Store{m.holdings.DB(), m.history.DB()} {
		for {
			err := db.Badger().RunValueLogGC(0.5)
			if err == badger.ErrNoRewrite || err == badger.ErrRejected {
				break
			}
			if err != nil {
				return fmt.Errorf("value log gc: %w", err)
			}
		}
	}
	m.logger.Debug().Msg("Value log GC completed")
	return nil
}

func (m *Manager) Close() error {
	var firstErr error
	if err := m.holdings.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.history.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
