package models

import (
	"time"
)

// TrendType labels the moving-average alignment of a price series
type TrendType string

const (
	TrendStrongBullish TrendType = "strong_bullish"
	TrendBullish       TrendType = "bullish"
	TrendNeutral       TrendType = "neutral"
	TrendBearish       TrendType = "bearish"
	TrendStrongBearish TrendType = "strong_bearish"
)

// MACD signal labels
const (
	MACDBullishCrossover = "bullish_crossover"
	MACDBullish          = "bullish"
	MACDBearishCrossover = "bearish_crossover"
	MACDBearish          = "bearish"
)

// Volume status labels
const (
	VolumeBullishBreakout = "bullish_breakout"
	VolumeAboveAverage    = "above_average"
	VolumeNormal          = "normal"
	VolumeBelowAverage    = "below_average"
	VolumeBearishSelloff  = "bearish_selloff"
)

// SentimentSummary holds keyword-derived news sentiment for a symbol
type SentimentSummary struct {
	Score      float64  `json:"score"`      // 0-100, 50 is neutral
	Trend      string   `json:"trend"`      // positive, negative, neutral
	Impact     float64  `json:"impact"`     // 0-100 estimated market impact
	Normalized float64  `json:"normalized"` // score rescaled to -1..1
	Positive   int      `json:"positive"`   // articles leaning positive
	Negative   int      `json:"negative"`
	Neutral    int      `json:"neutral"`
	Topics     []string `json:"topics,omitempty"`
	Headlines  []string `json:"headlines,omitempty"`
	Count      int      `json:"count"` // articles analyzed
}

// TechnicalReport holds the indicator snapshot and derived signals
type TechnicalReport struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	MA5           float64   `json:"ma5"`
	MA10          float64   `json:"ma10"`
	MA20          float64   `json:"ma20"`
	MA50          float64   `json:"ma50"`
	MA200         float64   `json:"ma200"`
	RSI           float64   `json:"rsi"`
	MACD          float64   `json:"macd"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDHistogram float64   `json:"macd_histogram"`
	MACDLabel     string    `json:"macd_label"` // bullish_crossover, bullish, bearish_crossover, bearish
	Trend         TrendType `json:"trend"`
	Support       float64   `json:"support"`
	Resistance    float64   `json:"resistance"`
	AvgVolume     int64     `json:"avg_volume"`
	VolumeRatio   float64   `json:"volume_ratio"`  // today against the 20-day average
	VolumeStatus  string    `json:"volume_status"` // bullish_breakout, above_average, normal, below_average, bearish_selloff
	Volatility    float64   `json:"volatility"`    // annualised, percent
	Momentum1     float64   `json:"momentum_1"`    // price change over 1, 5, and 20 days, percent
	Momentum5     float64   `json:"momentum_5"`
	Momentum20    float64   `json:"momentum_20"`
	PVCorrelation float64   `json:"pv_correlation"` // price/volume Pearson over 20 days
	Score         float64   `json:"score"`          // 0-100
	GeneratedAt   time.Time `json:"generated_at"`
}

// ChipAnalysis summarises the ownership structure of a stock
type ChipAnalysis struct {
	InstitutionalPct *float64 `json:"institutional_pct,omitempty"` // fraction of float
	InsiderPct       *float64 `json:"insider_pct,omitempty"`
	ShortPct         *float64 `json:"short_pct,omitempty"`
	Concentration    string   `json:"concentration"` // low, medium, high
	CapClass         string   `json:"cap_class"`     // large, mid, small
	Score            float64  `json:"score"`         // 0-100
}

// RiskAssessment grades the main risk dimensions of a stock
type RiskAssessment struct {
	Volatility string `json:"volatility"` // low, medium, high
	Valuation  string `json:"valuation"`  // undervalued, fair, elevated, expensive
	News       string `json:"news"`       // positive, neutral, negative
	Overall    string `json:"overall"`    // low, medium, high
}

// ScoreBreakdown exposes the component scores behind the composite
type ScoreBreakdown struct {
	Fundamental   float64 `json:"fundamental"`
	Technical     float64 `json:"technical"`
	News          float64 `json:"news"`
	Chip          float64 `json:"chip"`
	Screening     float64 `json:"screening"` // weighted fundamental/technical/news blend
	ScreeningCall string  `json:"screening_call"`
}

// AgentOpinion is one analyst persona's read on a stock
type AgentOpinion struct {
	Agent      string   `json:"agent"`
	Style      string   `json:"style"`
	Stance     string   `json:"stance"`     // BUY, HOLD, SELL
	Confidence float64  `json:"confidence"` // 0-10
	Target     *float64 `json:"target,omitempty"`
	Risk       string   `json:"risk,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

// Consensus aggregates agent opinions into a single call
type Consensus struct {
	Decision      string         `json:"decision"` // BUY, HOLD, SELL
	Votes         map[string]int `json:"votes"`
	AvgConfidence float64        `json:"avg_confidence"`
	Level         string         `json:"level"` // strong, moderate, split
}

// StockAnalysis is the full output of a single-stock deep dive
type StockAnalysis struct {
	Symbol         string            `json:"symbol"`
	Name           string            `json:"name,omitempty"`
	Market         string            `json:"market"` // US, TW
	Quote          *Quote            `json:"quote,omitempty"`
	Info           *StockInfo        `json:"info,omitempty"`
	Sentiment      *SentimentSummary `json:"sentiment,omitempty"`
	Technical      *TechnicalReport  `json:"technical,omitempty"`
	Chips          *ChipAnalysis     `json:"chips,omitempty"`
	Scores         *ScoreBreakdown   `json:"scores,omitempty"`
	CompositeScore float64           `json:"composite_score"`
	Recommendation string            `json:"recommendation"`
	Risk           *RiskAssessment   `json:"risk,omitempty"`
	Sections       map[string]string `json:"sections,omitempty"` // AI commentary by section
	Commentary     string            `json:"commentary,omitempty"`
	Agents         []*AgentOpinion   `json:"agents,omitempty"`
	Consensus      *Consensus        `json:"consensus,omitempty"`
	ReportPath     string            `json:"report_path,omitempty"`
	ChartPath      string            `json:"chart_path,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// AnalyzeOptions configures a single-stock analysis
type AnalyzeOptions struct {
	Symbol     string `json:"symbol"`
	Days       int    `json:"days,omitempty"`       // price history window
	NewsLimit  int    `json:"news_limit,omitempty"` // articles to pull
	WithAgents bool   `json:"with_agents,omitempty"`
	SaveReport bool   `json:"save_report,omitempty"`
}
