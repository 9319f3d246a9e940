// Package portfolio manages the holdings book and its live valuation.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// DefaultQuoteConcurrency bounds parallel quote fetches during Summary.
const DefaultQuoteConcurrency = 4

// Service implements PortfolioService over the holdings store.
type Service struct {
	store  interfaces.HoldingsStore
	market interfaces.MarketDataClient
	logger *common.Logger
}

// NewService creates the portfolio service. The market client may be nil
// when live valuation is not needed.
func NewService(store interfaces.HoldingsStore, market interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		market: market,
		logger: logger,
	}
}

// AddHolding inserts a position, or merges into an existing one. Adding
// shares to a held symbol blends the average cost; adding without shares
// or cost refreshes only the notes and currency.
func (s *Service) AddHolding(ctx context.Context, symbol string, shares, avgCost float64, notes string) (*models.Holding, error) {
	sym, market := models.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("no symbol to add")
	}
	if shares < 0 || avgCost < 0 {
		return nil, fmt.Errorf("shares and cost cannot be negative")
	}

	holding := &models.Holding{
		Symbol:   sym,
		Market:   market,
		Shares:   shares,
		AvgCost:  avgCost,
		Currency: models.CurrencyFor(market),
		Notes:    notes,
	}

	existing, err := s.store.Get(ctx, sym, market)
	switch {
	case err == nil:
		holding = mergeHolding(existing, shares, avgCost, notes)
	case !errors.Is(err, interfaces.ErrNotFound):
		return nil, fmt.Errorf("failed to check holding %s: %w", sym, err)
	}

	if err := s.store.Put(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to save holding %s: %w", sym, err)
	}

	s.logger.Info().
		Str("symbol", sym).
		Str("market", market).
		Float64("shares", holding.Shares).
		Float64("avg_cost", holding.AvgCost).
		Msg("Holding saved")

	return holding, nil
}

// mergeHolding folds a new lot into an existing position. Both shares
// and cost must be present to change the position; otherwise only notes
// and currency are refreshed.
func mergeHolding(existing *models.Holding, shares, avgCost float64, notes string) *models.Holding {
	merged := *existing
	merged.Currency = models.CurrencyFor(existing.Market)
	merged.Notes = notes

	if shares > 0 && avgCost > 0 {
		totalShares := existing.Shares + shares
		totalCost := existing.Shares*existing.AvgCost + shares*avgCost
		merged.Shares = totalShares
		merged.AvgCost = totalCost / totalShares
	}

	return &merged
}

// UpdateHolding applies a partial update to one position. Nil patch
// fields keep their current values; the currency is always refreshed
// from the market.
func (s *Service) UpdateHolding(ctx context.Context, symbol, market string, patch models.HoldingPatch) (*models.Holding, error) {
	sym, detected := models.NormalizeSymbol(symbol)
	if market == "" {
		market = detected
	}

	holding, err := s.store.Get(ctx, sym, market)
	if err != nil {
		return nil, err
	}

	if patch.Shares != nil {
		if *patch.Shares < 0 {
			return nil, fmt.Errorf("shares cannot be negative")
		}
		holding.Shares = *patch.Shares
	}
	if patch.AvgCost != nil {
		if *patch.AvgCost < 0 {
			return nil, fmt.Errorf("cost cannot be negative")
		}
		holding.AvgCost = *patch.AvgCost
	}
	if patch.Notes != nil {
		holding.Notes = *patch.Notes
	}
	holding.Currency = models.CurrencyFor(market)

	if err := s.store.Put(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to update holding %s: %w", sym, err)
	}

	s.logger.Info().Str("symbol", sym).Str("market", market).Msg("Holding updated")

	return holding, nil
}

// GetHolding retrieves one position.
func (s *Service) GetHolding(ctx context.Context, symbol, market string) (*models.Holding, error) {
	sym, detected := models.NormalizeSymbol(symbol)
	if market == "" {
		market = detected
	}
	return s.store.Get(ctx, sym, market)
}

// RemoveHolding deletes a position. With an empty market the symbol is
// removed across every market; the number of removed positions is returned.
func (s *Service) RemoveHolding(ctx context.Context, symbol, market string) (int, error) {
	sym, _ := models.NormalizeSymbol(symbol)
	if sym == "" {
		return 0, fmt.Errorf("no symbol to remove")
	}

	if market == "" {
		count, err := s.store.DeleteSymbol(ctx, sym)
		if err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", sym, err)
		}
		s.logger.Info().Str("symbol", sym).Int("removed", count).Msg("Holding removed across markets")
		return count, nil
	}

	if _, err := s.store.Get(ctx, sym, market); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to check holding %s: %w", sym, err)
	}
	if err := s.store.Delete(ctx, sym, market); err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", sym, err)
	}

	s.logger.Info().Str("symbol", sym).Str("market", market).Msg("Holding removed")
	return 1, nil
}

// ListHoldings returns positions ordered by market then symbol,
// optionally filtered to one market.
func (s *Service) ListHoldings(ctx context.Context, market string) ([]*models.Holding, error) {
	holdings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	if market == "" {
		return holdings, nil
	}

	filtered := make([]*models.Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Market == market {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// Summary values every position at a live quote and totals the book per
// currency. Positions whose quote fails are left out of the valuation.
func (s *Service) Summary(ctx context.Context) (*models.PortfolioSummary, error) {
	if s.market == nil {
		return nil, fmt.Errorf("no market data client configured")
	}

	holdings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	summary := &models.PortfolioSummary{
		Positions:   make([]*models.HoldingPosition, 0, len(holdings)),
		Totals:      make(map[string]*models.CurrencyTotals),
		GeneratedAt: time.Now(),
	}
	if len(holdings) == 0 {
		return summary, nil
	}

	type quoteResult struct {
		index int
		quote *models.Quote
		err   error
	}

	quoteChan := make(chan quoteResult, len(holdings))
	semaphore := make(chan struct{}, DefaultQuoteConcurrency)

	var wg sync.WaitGroup
	for i, h := range holdings {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			quote, err := s.market.GetQuote(ctx, symbol)
			quoteChan <- quoteResult{index: i, quote: quote, err: err}
		}(i, h.Symbol)
	}
	wg.Wait()
	close(quoteChan)

	quotes := make([]*models.Quote, len(holdings))
	failed := 0
	for r := range quoteChan {
		if r.err != nil {
			failed++
			s.logger.Warn().Err(r.err).Str("symbol", holdings[r.index].Symbol).Msg("Failed to quote holding")
			continue
		}
		quotes[r.index] = r.quote
	}
	if failed > 0 {
		s.logger.Warn().Int("failed", failed).Int("total", len(holdings)).Msg("Some holdings could not be valued")
	}

	for i, h := range holdings {
		quote := quotes[i]
		if quote == nil {
			continue
		}
		pos := valuePosition(h, quote)
		summary.Positions = append(summary.Positions, pos)
		addToTotals(summary.Totals, pos)
	}

	for _, t := range summary.Totals {
		if t.CostBasis > 0 {
			t.GainLossPct = t.GainLoss / t.CostBasis * 100
		}
	}

	return summary, nil
}

func valuePosition(h *models.Holding, quote *models.Quote) *models.HoldingPosition {
	pos := &models.HoldingPosition{
		Symbol:      h.Symbol,
		Market:      h.Market,
		Shares:      h.Shares,
		AvgCost:     h.AvgCost,
		Currency:    h.Currency,
		Price:       quote.Price,
		MarketValue: h.Shares * quote.Price,
		CostBasis:   h.Shares * h.AvgCost,
		Notes:       h.Notes,
		QuotedAt:    quote.Timestamp,
	}
	pos.GainLoss = pos.MarketValue - pos.CostBasis
	if pos.CostBasis > 0 {
		pos.GainLossPct = pos.GainLoss / pos.CostBasis * 100
	}
	return pos
}

func addToTotals(totals map[string]*models.CurrencyTotals, pos *models.HoldingPosition) {
	t, ok := totals[pos.Currency]
	if !ok {
		t = &models.CurrencyTotals{Currency: pos.Currency}
		totals[pos.Currency] = t
	}
	t.MarketValue += pos.MarketValue
	t.CostBasis += pos.CostBasis
	t.GainLoss += pos.GainLoss
	t.Positions++
}

var _ interfaces.PortfolioService = (*Service)(nil)
