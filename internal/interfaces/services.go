// Package interfaces defines service contracts for Argus
package interfaces

import (
	"context"
	"errors"

	"github.com/calebmills/argus/internal/models"
)

// ErrRunInProgress reports that a screening pass is already running
var ErrRunInProgress = errors.New("screening run already in progress")

// ScreenerService runs the S&P 500 value screen
type ScreenerService interface {
	// Screen scores the universe on value metrics and returns the
	// ranked candidates
	Screen(ctx context.Context, opts models.ScreenOptions) (*models.ScreenReport, error)
}

// PipelineService runs the screening pipeline, on demand and on a cron
// schedule
type PipelineService interface {
	// Run executes a full pass: screen the universe, write the run
	// report, deep-dive the top candidates. Returns ErrRunInProgress
	// when a pass is already running.
	Run(ctx context.Context, opts models.ScreenOptions) (*models.PipelineRun, error)

	// Latest returns the most recent completed run, nil before the first
	Latest() *models.PipelineRun

	// Start begins cron scheduling; Stop halts it
	Start() error
	Stop()
}

// AnalysisService performs single-stock deep dives
type AnalysisService interface {
	// Analyze runs the sentiment, technical, ownership and AI commentary
	// pipeline for one stock
	Analyze(ctx context.Context, opts models.AnalyzeOptions) (*models.StockAnalysis, error)
}

// SentimentService scores news coverage for a symbol
type SentimentService interface {
	// Summarize derives a sentiment summary from news items
	Summarize(items []*models.NewsItem) *models.SentimentSummary
}

// PortfolioService manages the holdings book
type PortfolioService interface {
	// AddHolding inserts or merges a position. An existing position for
	// the same symbol and market gets a blended average cost.
	AddHolding(ctx context.Context, symbol string, shares, avgCost float64, notes string) (*models.Holding, error)

	// UpdateHolding applies a partial update; nil patch fields keep
	// their current values
	UpdateHolding(ctx context.Context, symbol, market string, patch models.HoldingPatch) (*models.Holding, error)

	// GetHolding retrieves one position
	GetHolding(ctx context.Context, symbol, market string) (*models.Holding, error)

	// RemoveHolding deletes a position. An empty market removes the
	// symbol across every market; the count of removed positions is returned.
	RemoveHolding(ctx context.Context, symbol, market string) (int, error)

	// ListHoldings returns all positions, optionally filtered to one market
	ListHoldings(ctx context.Context, market string) ([]*models.Holding, error)

	// Summary values every position at live quotes, totalled per currency
	Summary(ctx context.Context) (*models.PortfolioSummary, error)
}

// ReportService renders analysis output to files
type ReportService interface {
	// WriteScreenReport renders a screen report as markdown and returns
	// the file path
	WriteScreenReport(report *models.ScreenReport) (string, error)

	// WriteAnalysisReport renders a stock analysis as markdown with a
	// price chart; returns the report and chart paths
	WriteAnalysisReport(analysis *models.StockAnalysis, bars []models.EODBar) (string, string, error)
}
