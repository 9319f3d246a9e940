// Package historydb keeps the append-only log of screen and analysis runs.
package historydb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// DefaultListLimit bounds List results when the filter does not set one.
const DefaultListLimit = 10

// Store implements interfaces.HistoryStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new history store backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("History store opened")
	return &Store{db: db, logger: logger}, nil
}

// Append adds a record to the log. An empty ID gets a generated one; records
// are never updated after insertion.
func (s *Store) Append(_ context.Context, record *models.AnalysisRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := s.db.Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to append history record %s: %w", record.ID, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := s.db.Get(id, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("history record '%s': %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get history record '%s': %w", id, err)
	}
	return &rec, nil
}

// List returns matching records newest first. A zero filter limit falls back
// to DefaultListLimit; a negative limit returns everything.
func (s *Store) List(_ context.Context, filter models.HistoryFilter) ([]*models.AnalysisRecord, error) {
	var all []models.AnalysisRecord
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}

	var result []*models.AnalysisRecord
	for i := range all {
		if matches(&all[i], filter) {
			rec := all[i]
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	var all []models.AnalysisRecord
	if err := s.db.Find(&all, nil); err != nil {
		return 0, fmt.Errorf("failed to count history records: %w", err)
	}
	return len(all), nil
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

func matches(rec *models.AnalysisRecord, filter models.HistoryFilter) bool {
	if filter.Type != "" && rec.Type != filter.Type {
		return false
	}
	if filter.Symbol != "" && !strings.EqualFold(rec.Symbol, filter.Symbol) {
		return false
	}
	if filter.Market != "" && rec.Market != filter.Market {
		return false
	}
	if !filter.Since.IsZero() && rec.CreatedAt.Before(filter.Since) {
		return false
	}
	return true
}

// Compile-time check
var _ interfaces.HistoryStore = (*Store)(nil)
