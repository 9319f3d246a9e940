// Package interfaces defines service contracts for Argus
package interfaces

import (
	"context"
	"time"

	"github.com/calebmills/argus/internal/models"
)

// MarketDataClient provides access to a market data source
type MarketDataClient interface {
	// GetQuote retrieves a live price snapshot
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistory retrieves daily bars, newest first
	GetHistory(ctx context.Context, symbol string, opts ...HistoryOption) ([]models.EODBar, error)

	// GetStockInfo retrieves fundamentals and ownership data
	GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error)

	// GetNews retrieves recent news articles for a symbol
	GetNews(ctx context.Context, symbol string, limit int) ([]*models.NewsItem, error)

	// FetchSP500Symbols returns the current S&P 500 constituent list
	FetchSP500Symbols(ctx context.Context) ([]string, error)
}

// HistoryOption configures price history requests
type HistoryOption func(*HistoryParams)

// HistoryParams holds price history query parameters
type HistoryParams struct {
	From time.Time
	To   time.Time
	Days int // calendar-day lookback used when From is unset
}

// WithDateRange sets an explicit date range for the history query
func WithDateRange(from, to time.Time) HistoryOption {
	return func(p *HistoryParams) {
		p.From = from
		p.To = to
	}
}

// WithDays sets the lookback window in calendar days
func WithDays(days int) HistoryOption {
	return func(p *HistoryParams) {
		p.Days = days
	}
}

// CommentaryClient generates AI prose from market data prompts
type CommentaryClient interface {
	// Generate produces text for a prompt. Caller names a long-running
	// consumer so its requests ride a stable upstream credential; pass
	// the empty string for one-shot requests.
	Generate(ctx context.Context, caller, prompt string) (string, error)
}
