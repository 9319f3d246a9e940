package models

import (
	"time"
)

// ValueScores holds the per-metric tier scores for a screen candidate.
// Each metric maps onto a 0-10 scale; Composite is the weighted blend.
type ValueScores struct {
	PE        float64 `json:"pe"`
	PB        float64 `json:"pb"`
	Dividend  float64 `json:"dividend"`
	Debt      float64 `json:"debt"`
	CashFlow  float64 `json:"cash_flow"`
	Composite float64 `json:"composite"`
	Rating    string  `json:"rating"` // excellent, good, normal, poor, bad
}

// ScreenCandidate represents a stock passing the value screen
type ScreenCandidate struct {
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Sector        string      `json:"sector,omitempty"`
	Industry      string      `json:"industry,omitempty"`
	Price         float64     `json:"price"`
	MarketCap     float64     `json:"market_cap"`
	PE            *float64    `json:"pe_ratio,omitempty"`
	PB            *float64    `json:"pb_ratio,omitempty"`
	DividendYield *float64    `json:"dividend_yield,omitempty"`
	DebtToEquity  *float64    `json:"debt_to_equity,omitempty"`
	FCFYield      *float64    `json:"fcf_yield,omitempty"`
	Scores        ValueScores `json:"scores"`
	Rank          int         `json:"rank"`
}

// SectorStat aggregates screen results for one sector
type SectorStat struct {
	Sector   string  `json:"sector"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	Best     string  `json:"best"` // highest-scoring symbol in the sector
}

// ScreenReport holds the output of a full screening run
type ScreenReport struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Universe    int                `json:"universe"` // symbols considered
	Screened    int                `json:"screened"` // symbols with usable data
	Candidates  []*ScreenCandidate `json:"candidates"`
	SectorStats []SectorStat       `json:"sector_stats,omitempty"`
	Commentary  string             `json:"commentary,omitempty"` // AI market commentary
	Duration    time.Duration      `json:"duration"`
}

// ScreenOptions configures a screening run
type ScreenOptions struct {
	Symbols        []string `json:"symbols,omitempty"` // override the S&P 500 universe
	MinMarketCap   float64  `json:"min_market_cap,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	Concurrency    int      `json:"concurrency,omitempty"`
	WithCommentary bool     `json:"with_commentary,omitempty"`
}

// RunFailure records one candidate the pipeline could not analyze
type RunFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// PipelineRun summarises one screening pipeline pass
type PipelineRun struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Universe   int           `json:"universe"`
	Screened   int           `json:"screened"`
	Candidates int           `json:"candidates"`
	Analyzed   int           `json:"analyzed"` // deep dives completed
	Failures   []RunFailure  `json:"failures,omitempty"`
	ReportPath string        `json:"report_path,omitempty"`
	Report     *ScreenReport `json:"report,omitempty"`
}
