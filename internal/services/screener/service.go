// Package screener runs the S&P 500 value screen.
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calebmills/argus/internal/clients/gemini"
	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// Screening defaults, used when options leave a field zero
const (
	DefaultMinMarketCap = 1_000_000_000
	DefaultMaxResults   = 50
	DefaultConcurrency  = 8
)

// Service implements interfaces.ScreenerService
type Service struct {
	market     interfaces.MarketDataClient
	commentary interfaces.CommentaryClient
	history    interfaces.HistoryStore
	logger     *common.Logger
}

// NewService creates a new screener service. commentary and history may be
// nil; screening then runs without AI commentary or run records.
func NewService(
	market interfaces.MarketDataClient,
	commentary interfaces.CommentaryClient,
	history interfaces.HistoryStore,
	logger *common.Logger,
) *Service {
	return &Service{
		market:     market,
		commentary: commentary,
		history:    history,
		logger:     logger,
	}
}

// Screen runs the value screen across the requested universe
func (s *Service) Screen(ctx context.Context, opts models.ScreenOptions) (*models.ScreenReport, error) {
	start := time.Now()

	minCap := opts.MinMarketCap
	if minCap <= 0 {
		minCap = DefaultMinMarketCap
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	symbols := opts.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = s.market.FetchSP500Symbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load screen universe: %w", err)
		}
	}

	s.logger.Info().
		Int("universe", len(symbols)).
		Float64("min_market_cap", minCap).
		Int("concurrency", concurrency).
		Msg("Running value screen")

	// Fetch stock info concurrently
	type infoResult struct {
		symbol string
		info   *models.StockInfo
		err    error
	}
	infoChan := make(chan infoResult, len(symbols))
	semaphore := make(chan struct{}, concurrency)

	for _, symbol := range symbols {
		go func(sym string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			info, err := s.market.GetStockInfo(ctx, sym)
			infoChan <- infoResult{symbol: sym, info: info, err: err}
		}(symbol)
	}

	infos := make(map[string]*models.StockInfo, len(symbols))
	failed := 0
	for range symbols {
		result := <-infoChan
		if result.err != nil {
			failed++
			s.logger.Debug().Str("symbol", result.symbol).Err(result.err).Msg("Failed to fetch stock info")
			continue
		}
		infos[result.symbol] = result.info
	}
	close(infoChan)

	if failed > 0 {
		s.logger.Warn().Int("failed", failed).Int("fetched", len(infos)).Msg("Some symbols could not be fetched")
	}

	// Filter and score
	candidates := make([]*models.ScreenCandidate, 0)
	for _, symbol := range symbols {
		info, ok := infos[symbol]
		if !ok {
			continue
		}
		if info.MarketCap < minCap || info.Price <= 0 {
			continue
		}
		candidates = append(candidates, newCandidate(symbol, info))
	}

	// Rank by composite score; ties go alphabetically for stable output
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Scores.Composite != candidates[j].Scores.Composite {
			return candidates[i].Scores.Composite > candidates[j].Scores.Composite
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	for i, c := range candidates {
		c.Rank = i + 1
	}

	stats := sectorStats(candidates)

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	report := &models.ScreenReport{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now(),
		Universe:    len(symbols),
		Screened:    len(infos),
		Candidates:  candidates,
		SectorStats: stats,
		Duration:    time.Since(start),
	}

	if opts.WithCommentary && s.commentary != nil && len(candidates) > 0 {
		prompt := gemini.BuildScreenCommentaryPrompt(report, 10)
		text, err := s.commentary.Generate(ctx, "screener", prompt)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to generate screen commentary")
		} else {
			report.Commentary = text
		}
	}

	s.record(ctx, report)

	s.logger.Info().
		Int("universe", report.Universe).
		Int("screened", report.Screened).
		Int("candidates", len(report.Candidates)).
		Dur("duration", report.Duration).
		Msg("Value screen complete")

	return report, nil
}

// newCandidate builds a scored candidate from its stock info
func newCandidate(symbol string, info *models.StockInfo) *models.ScreenCandidate {
	return &models.ScreenCandidate{
		Symbol:        symbol,
		Name:          info.Name,
		Sector:        info.Sector,
		Industry:      info.Industry,
		Price:         info.Price,
		MarketCap:     info.MarketCap,
		PE:            info.PE,
		PB:            info.PB,
		DividendYield: info.DividendYield,
		DebtToEquity:  info.DebtToEquity,
		FCFYield:      fcfYield(info),
		Scores:        scoreStock(info),
	}
}

// sectorStats aggregates every candidate that passed the screen, before the
// result cap is applied. Candidates arrive sorted, so the first seen per
// sector is its best.
func sectorStats(candidates []*models.ScreenCandidate) []models.SectorStat {
	type agg struct {
		count int
		total float64
		best  string
	}
	byName := make(map[string]*agg)
	var order []string

	for _, c := range candidates {
		sector := c.Sector
		if sector == "" {
			sector = "Unknown"
		}
		a, ok := byName[sector]
		if !ok {
			a = &agg{best: c.Symbol}
			byName[sector] = a
			order = append(order, sector)
		}
		a.count++
		a.total += c.Scores.Composite
	}

	stats := make([]models.SectorStat, 0, len(byName))
	for _, sector := range order {
		a := byName[sector]
		stats = append(stats, models.SectorStat{
			Sector:   sector,
			Count:    a.count,
			AvgScore: a.total / float64(a.count),
			Best:     a.best,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].AvgScore > stats[j].AvgScore
	})
	return stats
}

// record appends the run to history; failures only log
func (s *Service) record(ctx context.Context, report *models.ScreenReport) {
	if s.history == nil {
		return
	}

	var top float64
	if len(report.Candidates) > 0 {
		top = report.Candidates[0].Scores.Composite
	}
	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode screen report")
		return
	}

	rec := &models.AnalysisRecord{
		ID:      report.ID,
		Type:    models.RecordTypeScreen,
		Summary: fmt.Sprintf("%d of %d screened symbols passed the value filter", len(report.Candidates), report.Screened),
		Score:   top,
		Payload: string(payload),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record screen run")
	}
}

// Ensure Service implements ScreenerService
var _ interfaces.ScreenerService = (*Service)(nil)
