// Package models defines data structures for Argus
package models

import (
	"strings"
	"time"
)

// Markets a holding can belong to
const (
	MarketUS = "US"
	MarketTW = "TW"
)

// NormalizeSymbol canonicalises user symbol input and infers its market.
// Bare four-digit codes are Taiwan listings and get the ".TW" suffix;
// ".TW" and ".TWO" suffixes map to the TW market, everything else to US.
func NormalizeSymbol(symbol string) (string, string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) == 4 && isDigits(s) {
		s += ".TW"
	}
	if strings.HasSuffix(s, ".TW") || strings.HasSuffix(s, ".TWO") {
		return s, MarketTW
	}
	return s, MarketUS
}

// CurrencyFor returns the trading currency for a market
func CurrencyFor(market string) string {
	if market == MarketTW {
		return "TWD"
	}
	return "USD"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Holding represents one position in the portfolio, unique per
// symbol and market
type Holding struct {
	Symbol    string    `json:"symbol"`
	Market    string    `json:"market"` // US, TW
	Shares    float64   `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	Currency  string    `json:"currency"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// HoldingPatch is a partial update to a holding; nil fields keep their
// current values
type HoldingPatch struct {
	Shares  *float64 `json:"shares,omitempty"`
	AvgCost *float64 `json:"avg_cost,omitempty"`
	Notes   *string  `json:"notes,omitempty"`
}

// HoldingPosition is a holding valued at a live quote
type HoldingPosition struct {
	Symbol      string    `json:"symbol"`
	Market      string    `json:"market"`
	Shares      float64   `json:"shares"`
	AvgCost     float64   `json:"avg_cost"`
	Currency    string    `json:"currency"`
	Price       float64   `json:"price"`
	MarketValue float64   `json:"market_value"`
	CostBasis   float64   `json:"cost_basis"`
	GainLoss    float64   `json:"gain_loss"`
	GainLossPct float64   `json:"gain_loss_pct"`
	Notes       string    `json:"notes,omitempty"`
	QuotedAt    time.Time `json:"quoted_at"`
}

// CurrencyTotals aggregates positions sharing a currency
type CurrencyTotals struct {
	Currency    string  `json:"currency"`
	MarketValue float64 `json:"market_value"`
	CostBasis   float64 `json:"cost_basis"`
	GainLoss    float64 `json:"gain_loss"`
	GainLossPct float64 `json:"gain_loss_pct"`
	Positions   int     `json:"positions"`
}

// PortfolioSummary values every holding and totals them per currency.
// Cross-currency positions are never merged into a single figure.
type PortfolioSummary struct {
	Positions   []*HoldingPosition         `json:"positions"`
	Totals      map[string]*CurrencyTotals `json:"totals"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// Analysis record types
const (
	RecordTypeScreen   = "screen"
	RecordTypeAnalysis = "analysis"
)

// AnalysisRecord is one entry in the append-only analysis history
type AnalysisRecord struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"` // screen, analysis
	Symbol         string    `json:"symbol,omitempty"`
	Market         string    `json:"market,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	Score          float64   `json:"score,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Payload        string    `json:"payload,omitempty"` // full result as JSON
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryFilter narrows a history query
type HistoryFilter struct {
	Type   string    `json:"type,omitempty"`
	Symbol string    `json:"symbol,omitempty"`
	Market string    `json:"market,omitempty"`
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"` // default 10
}
