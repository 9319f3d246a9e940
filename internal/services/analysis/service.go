// Package analysis runs the single-stock deep dive: market data,
// technicals, sentiment, ownership, AI commentary, and the agent debate.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calebmills/argus/internal/clients/gemini"
	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
	"github.com/calebmills/argus/internal/signals"
)

const (
	// DefaultHistoryDays covers the 200-day moving average with margin.
	DefaultHistoryDays = 365

	// DefaultNewsLimit caps articles pulled for sentiment scoring.
	DefaultNewsLimit = 10
)

// Service orchestrates the deep dive for one symbol.
type Service struct {
	market     interfaces.MarketDataClient
	commentary interfaces.CommentaryClient
	sentiment  interfaces.SentimentService
	reports    interfaces.ReportService
	history    interfaces.HistoryStore
	signals    *signals.Computer
	cfg        common.AnalysisConfig
	logger     *common.Logger
}

// NewService builds the analysis service. The commentary client, report
// writer, and history store may be nil; the matching steps are skipped.
func NewService(
	market interfaces.MarketDataClient,
	commentary interfaces.CommentaryClient,
	sentiment interfaces.SentimentService,
	reports interfaces.ReportService,
	history interfaces.HistoryStore,
	cfg common.AnalysisConfig,
	logger *common.Logger,
) *Service {
	if cfg.FundamentalWeight+cfg.TechnicalWeight+cfg.NewsWeight == 0 {
		cfg.FundamentalWeight = 0.4
		cfg.TechnicalWeight = 0.3
		cfg.NewsWeight = 0.3
	}

	return &Service{
		market:     market,
		commentary: commentary,
		sentiment:  sentiment,
		reports:    reports,
		history:    history,
		signals:    signals.NewComputer(),
		cfg:        cfg,
		logger:     logger,
	}
}

// Analyze runs the full pipeline for one symbol. Only the quote fetch is
// fatal; every other data source degrades to a partial analysis.
func (s *Service) Analyze(ctx context.Context, opts models.AnalyzeOptions) (*models.StockAnalysis, error) {
	start := time.Now()

	symbol, market := models.NormalizeSymbol(opts.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("no symbol to analyze")
	}

	days := opts.Days
	if days <= 0 {
		days = DefaultHistoryDays
	}
	newsLimit := opts.NewsLimit
	if newsLimit <= 0 {
		newsLimit = DefaultNewsLimit
	}

	s.logger.Info().
		Str("symbol", symbol).
		Str("market", market).
		Int("days", days).
		Bool("with_agents", opts.WithAgents).
		Msg("Starting stock analysis")

	quote, err := s.market.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	analysis := &models.StockAnalysis{
		Symbol:      symbol,
		Market:      market,
		Quote:       quote,
		GeneratedAt: time.Now(),
	}

	bars, err := s.market.GetHistory(ctx, symbol, interfaces.WithDays(days))
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price history unavailable")
	}

	info, err := s.market.GetStockInfo(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Stock info unavailable")
	} else {
		analysis.Info = info
		if info.Name != "" {
			analysis.Name = info.Name
		}
	}

	news, err := s.market.GetNews(ctx, symbol, newsLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("News unavailable")
	}
	if s.sentiment != nil {
		analysis.Sentiment = s.sentiment.Summarize(news)
	}

	if len(bars) > 0 {
		tech := s.signals.Compute(symbol, bars)
		tech.Score = technicalDetailScore(tech)
		analysis.Technical = tech
	}

	analysis.Chips = buildChips(info)

	analysis.Scores = s.scoreBreakdown(analysis)
	analysis.CompositeScore = individualComposite(
		analysis.Sentiment,
		technicalScore(analysis.Technical),
		chipScoreOf(analysis.Chips),
	)
	analysis.Recommendation = applyTrendGuard(
		recommendFromScore(analysis.CompositeScore),
		analysis.Sentiment,
		analysis.Technical,
	)
	analysis.Risk = assessRisk(info, analysis.Technical, analysis.Sentiment)

	s.generateCommentary(ctx, analysis)

	if opts.WithAgents && s.commentary != nil {
		analysis.Agents, analysis.Consensus = s.debate(ctx, analysis)
	}

	if opts.SaveReport && s.reports != nil {
		reportPath, chartPath, err := s.reports.WriteAnalysisReport(analysis, bars)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to write analysis report")
		} else {
			analysis.ReportPath = reportPath
			analysis.ChartPath = chartPath
		}
	}

	s.record(ctx, analysis)

	s.logger.Info().
		Str("symbol", symbol).
		Float64("composite", analysis.CompositeScore).
		Str("recommendation", analysis.Recommendation).
		Dur("duration", time.Since(start)).
		Msg("Stock analysis complete")

	return analysis, nil
}

// scoreBreakdown computes the component scores and the weighted screen
// blend alongside the deep-dive composite.
func (s *Service) scoreBreakdown(a *models.StockAnalysis) *models.ScoreBreakdown {
	var high52 float64
	if a.Info != nil {
		high52 = a.Info.High52Week
	}

	b := &models.ScoreBreakdown{
		Fundamental: fundamentalScore(a.Info),
		Technical:   technicalScreenScore(a.Technical, high52),
		News:        newsScore(a.Sentiment),
		Chip:        chipScoreOf(a.Chips),
	}
	b.Screening = b.Fundamental*s.cfg.FundamentalWeight +
		b.Technical*s.cfg.TechnicalWeight +
		b.News*s.cfg.NewsWeight
	b.ScreeningCall = screeningRecommendation(b.Screening)

	return b
}

// generateCommentary asks the model for the six-section narrative and
// attaches both the raw text and the parsed sections.
func (s *Service) generateCommentary(ctx context.Context, a *models.StockAnalysis) {
	if s.commentary == nil {
		return
	}

	text, err := s.commentary.Generate(ctx, "analysis", gemini.BuildAnalysisPrompt(a))
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", a.Symbol).Msg("Commentary generation failed")
		return
	}

	a.Commentary = text
	a.Sections = gemini.ParseSections(text)
}

// record appends the analysis outcome to the history store.
func (s *Service) record(ctx context.Context, a *models.StockAnalysis) {
	if s.history == nil {
		return
	}

	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", a.Symbol).Msg("Failed to encode analysis record")
		return
	}

	rec := &models.AnalysisRecord{
		ID:             uuid.New().String(),
		Type:           models.RecordTypeAnalysis,
		Symbol:         a.Symbol,
		Market:         a.Market,
		Summary:        fmt.Sprintf("%s scored %.1f", a.Symbol, a.CompositeScore),
		Score:          a.CompositeScore,
		Recommendation: a.Recommendation,
		Payload:        string(payload),
		CreatedAt:      time.Now(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("symbol", a.Symbol).Msg("Failed to record analysis")
	}
}

func technicalScore(t *models.TechnicalReport) float64 {
	if t == nil {
		return 50
	}
	return t.Score
}

func chipScoreOf(ch *models.ChipAnalysis) float64 {
	if ch == nil {
		return 50
	}
	return ch.Score
}

var _ interfaces.AnalysisService = (*Service)(nil)
