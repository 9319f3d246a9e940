// Package holdingsdb persists portfolio holdings using BadgerHold.
// Holdings are keyed by symbol and market so the same ticker can be held
// on more than one exchange.
package holdingsdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// Store implements interfaces.HoldingsStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new holdings store backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create holdings path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings store at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Holdings store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(_ context.Context, symbol, market string) (*models.Holding, error) {
	key := compositeKey(symbol, market)
	var h models.Holding
	if err := s.db.Get(key, &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding %s (%s): %w", symbol, market, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding %s: %w", symbol, err)
	}
	return &h, nil
}

func (s *Store) Put(_ context.Context, holding *models.Holding) error {
	key := compositeKey(holding.Symbol, holding.Market)
	now := time.Now()

	// Read existing to increment version and keep the creation time
	var existing models.Holding
	if err := s.db.Get(key, &existing); err == nil {
		holding.Version = existing.Version + 1
		holding.CreatedAt = existing.CreatedAt
	} else {
		holding.Version = 1
		holding.CreatedAt = now
	}
	holding.UpdatedAt = now

	if err := s.db.Upsert(key, holding); err != nil {
		return fmt.Errorf("failed to put holding %s: %w", holding.Symbol, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, symbol, market string) error {
	key := compositeKey(symbol, market)
	if err := s.db.Delete(key, models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding %s: %w", symbol, err)
	}
	return nil
}

// DeleteSymbol removes the symbol's holdings across every market and returns
// how many were removed.
func (s *Store) DeleteSymbol(_ context.Context, symbol string) (int, error) {
	var all []models.Holding
	if err := s.db.Find(&all, nil); err != nil {
		return 0, fmt.Errorf("failed to find holdings for %s: %w", symbol, err)
	}
	count := 0
	for _, h := range all {
		if h.Symbol == symbol {
			if err := s.db.Delete(compositeKey(h.Symbol, h.Market), models.Holding{}); err == nil {
				count++
			}
		}
	}
	return count, nil
}

// List returns all holdings sorted by market, then symbol.
func (s *Store) List(_ context.Context) ([]*models.Holding, error) {
	var all []models.Holding
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Market != all[j].Market {
			return all[i].Market < all[j].Market
		}
		return all[i].Symbol < all[j].Symbol
	})
	result := make([]*models.Holding, len(all))
	for i := range all {
		result[i] = &all[i]
	}
	return result, nil
}

// DB returns the underlying badgerhold store for maintenance use.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func compositeKey(symbol, market string) string {
	return symbol + "\x00" + market
}

// Compile-time check
var _ interfaces.HoldingsStore = (*Store)(nil)
