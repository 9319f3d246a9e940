// Package models defines data structures for Argus
package models

import (
	"time"
)

// Quote holds a live price snapshot for a symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`     // absolute change from previous close
	ChangePct     float64   `json:"change_pct"` // percentage change from previous close
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"market_cap,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	MarketState   string    `json:"market_state,omitempty"` // PRE, REGULAR, POST, CLOSED
	Timestamp     time.Time `json:"timestamp"`
}

// EODBar represents a single day's price data. Bar slices are ordered
// newest first: index 0 is the most recent trading day.
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// NewsItem represents a news article
type NewsItem struct {
	Title          string    `json:"title"`
	Summary        string    `json:"summary,omitempty"`
	Publisher      string    `json:"publisher"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	Type           string    `json:"type,omitempty"` // STORY, VIDEO, PRESS_RELEASE
	RelatedSymbols []string  `json:"related_symbols,omitempty"`
}

// StockInfo carries fundamentals and ownership data for a symbol.
// Metrics the source does not report stay nil; scoring treats a missing
// metric differently from a zero one (zero debt is excellent, unknown
// debt is neutral), so these fields are pointers rather than zero values.
type StockInfo struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector,omitempty"`
	Industry  string  `json:"industry,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Country   string  `json:"country,omitempty"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`

	PE             *float64 `json:"pe_ratio,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PB             *float64 `json:"pb_ratio,omitempty"`
	EPS            *float64 `json:"eps,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"` // fraction, 0.025 = 2.5%
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ROE            *float64 `json:"return_on_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"`
	FreeCashflow   *float64 `json:"free_cashflow,omitempty"`
	TotalCash      *float64 `json:"total_cash,omitempty"`
	TotalDebt      *float64 `json:"total_debt,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`

	HeldPctInstitutions *float64 `json:"held_pct_institutions,omitempty"` // fraction of float
	HeldPctInsiders     *float64 `json:"held_pct_insiders,omitempty"`
	ShortPctOfFloat     *float64 `json:"short_pct_of_float,omitempty"`

	High52Week        float64   `json:"high_52_week,omitempty"`
	Low52Week         float64   `json:"low_52_week,omitempty"`
	AvgVolume         int64     `json:"avg_volume,omitempty"`
	SharesOutstanding int64     `json:"shares_outstanding,omitempty"`
	Summary           string    `json:"summary,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Float returns a pointer to v, for filling optional metric fields.
func Float(v float64) *float64 {
	return &v
}

// Deref returns the value behind p, or fallback when p is nil.
func Deref(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
