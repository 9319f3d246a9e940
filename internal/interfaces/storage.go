// Package interfaces defines service contracts for Argus
package interfaces

import (
	"context"
	"errors"

	"github.com/calebmills/argus/internal/models"
)

// ErrNotFound reports a missing record. Stores wrap it with detail, so
// callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// StorageManager coordinates all storage backends
type StorageManager interface {
	// Storage accessors
	Holdings() HoldingsStore
	History() HistoryStore

	// DataPath returns the base data directory path
	DataPath() string

	// RunGC compacts the underlying value logs
	RunGC() error

	// Lifecycle
	Close() error
}

// HoldingsStore persists portfolio positions keyed by symbol and market
type HoldingsStore interface {
	// Get retrieves one position
	Get(ctx context.Context, symbol, market string) (*models.Holding, error)

	// Put inserts or replaces a position
	Put(ctx context.Context, holding *models.Holding) error

	// Delete removes one position
	Delete(ctx context.Context, symbol, market string) error

	// DeleteSymbol removes a symbol across all markets, returning the
	// number of positions removed
	DeleteSymbol(ctx context.Context, symbol string) (int, error)

	// List returns all positions
	List(ctx context.Context) ([]*models.Holding, error)

	Close() error
}

// HistoryStore keeps the append-only analysis history
type HistoryStore interface {
	// Append stores a new record
	Append(ctx context.Context, record *models.AnalysisRecord) error

	// Get retrieves one record by ID
	Get(ctx context.Context, id string) (*models.AnalysisRecord, error)

	// List returns records matching the filter, newest first
	List(ctx context.Context, filter models.HistoryFilter) ([]*models.AnalysisRecord, error)

	// Count returns the total number of records
	Count(ctx context.Context) (int, error)

	Close() error
}
