package report

import (
	"strings"
	"testing"
	"time"

	"github.com/calebmills/argus/internal/models"
)

func sampleScreenReport() *models.ScreenReport {
	return &models.ScreenReport{
		ID:          "run-1",
		GeneratedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Universe:    503,
		Screened:    498,
		Duration:    92 * time.Second,
		Candidates: []*models.ScreenCandidate{
			{
				Rank:          1,
				Symbol:        "MO",
				Name:          "Altria Group",
				Sector:        "Consumer Defensive",
				Price:         43.21,
				PE:            models.Float(8.9),
				DividendYield: models.Float(0.0812),
				Scores:        models.ValueScores{Composite: 8.64, Rating: "excellent"},
			},
			{
				Rank:   2,
				Symbol: "VZ",
				Name:   "Verizon",
				Sector: "Communication Services",
				Price:  39.5,
				PE:     models.Float(9.4),
				PB:     models.Float(1.3),
				Scores: models.ValueScores{Composite: 7.91, Rating: "good"},
			},
		},
		SectorStats: []models.SectorStat{
			{Sector: "Consumer Defensive", Count: 1, AvgScore: 8.64, Best: "MO"},
		},
		Commentary: "Defensive names dominate this run.",
	}
}

func TestFormatScreenReport(t *testing.T) {
	md := formatScreenReport(sampleScreenReport())

	for _, want := range []string{
		"# Value Screen Report",
		"**Universe:** 503 symbols | **Screened:** 498 | **Candidates:** 2",
		"**Duration:** 1m32s",
		"| 1 | MO | Altria Group | Consumer Defensive | 43.21 | 8.90 |",
		"| 8.12% |",
		"## Sector Breakdown",
		"| Consumer Defensive | 1 | 8.64 | MO |",
		"## Market Commentary",
		"Defensive names dominate this run.",
		"not investment advice",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("screen report missing %q", want)
		}
	}

	// MO reports no P/B, the cell shows N/A
	if !strings.Contains(md, "| 8.90 | N/A |") {
		t.Error("expected N/A for the unreported P/B")
	}
}

func TestFormatScreenReport_NoCandidates(t *testing.T) {
	report := &models.ScreenReport{
		GeneratedAt: time.Now(),
		Universe:    503,
	}

	md := formatScreenReport(report)

	if !strings.Contains(md, "No candidates passed the screen.") {
		t.Error("expected the empty-run notice")
	}
	if strings.Contains(md, "## Top Candidates") {
		t.Error("candidate table should be absent")
	}
}

func sampleAnalysis() *models.StockAnalysis {
	return &models.StockAnalysis{
		Symbol:         "AAPL",
		Name:           "Apple Inc.",
		Market:         models.MarketUS,
		CompositeScore: 76.8,
		Recommendation: "buy",
		GeneratedAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Quote: &models.Quote{
			Symbol:    "AAPL",
			Price:     180.25,
			Change:    1.2,
			ChangePct: 0.67,
			Volume:    52314100,
			Currency:  "USD",
		},
		Info: &models.StockInfo{
			Symbol:     "AAPL",
			MarketCap:  2.81e12,
			High52Week: 190,
			Low52Week:  140,
		},
		Scores: &models.ScoreBreakdown{
			Fundamental:   75,
			Technical:     80,
			News:          85,
			Chip:          70,
			Screening:     78.5,
			ScreeningCall: "buy",
		},
		Risk: &models.RiskAssessment{
			Volatility: "low",
			Valuation:  "elevated",
			News:       "positive",
			Overall:    "medium",
		},
		Technical: &models.TechnicalReport{
			Trend:         models.TrendBullish,
			RSI:           55.3,
			MACD:          0.42,
			MACDLabel:     models.MACDBullish,
			MA5:           181.2,
			MA20:          178.4,
			MA50:          172.1,
			Support:       172,
			Resistance:    186.5,
			VolumeRatio:   1.2,
			VolumeStatus:  models.VolumeAboveAverage,
			Volatility:    22.1,
			Momentum1:     0.45,
			Momentum5:     1.8,
			Momentum20:    4.32,
			PVCorrelation: 0.37,
		},
		Chips: &models.ChipAnalysis{
			InstitutionalPct: models.Float(0.61),
			InsiderPct:       models.Float(0.02),
			ShortPct:         models.Float(0.01),
			Concentration:    "medium",
			CapClass:         "large",
		},
		Sentiment: &models.SentimentSummary{
			Trend:     "positive",
			Score:     62.5,
			Impact:    40,
			Count:     10,
			Positive:  6,
			Negative:  2,
			Neutral:   2,
			Topics:    []string{"earnings", "product"},
			Headlines: []string{"Apple beats estimates"},
		},
		Sections: map[string]string{
			"summary":    "Solid quarter.",
			"conclusion": "Accumulate on dips.",
		},
		Agents: []*models.AgentOpinion{
			{Agent: "Risk Management Expert", Stance: "SELL", Confidence: 6, Risk: "high", Rationale: "Valuation stretched."},
			{Agent: "Growth Value Investor", Stance: "BUY", Confidence: 8, Target: models.Float(195)},
		},
		Consensus: &models.Consensus{
			Decision:      "BUY",
			Votes:         map[string]int{"BUY": 1, "SELL": 1},
			AvgConfidence: 7,
			Level:         "split",
		},
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	md := formatAnalysisReport(sampleAnalysis(), "analysis_AAPL_20260302_100000.png")

	for _, want := range []string{
		"# AAPL - Apple Inc.",
		"**Market:** US | **Generated:** 2026-03-02 10:00",
		"**Composite Score:** 76.8 / 100",
		"**Recommendation:** buy",
		"**Risk:** medium (volatility low, valuation elevated, news positive)",
		"![AAPL price chart](analysis_AAPL_20260302_100000.png)",
		"## Quote",
		"| Price | 180.25 USD |",
		"| Market Cap | $2.81T |",
		"| 52-Week Range | 140.00 - 190.00 |",
		"## Score Breakdown",
		"**Screen blend:** 78.5 (buy)",
		"## Technical Snapshot",
		"| RSI (14) | 55.3 |",
		"| Support / Resistance | 172.00 / 186.50 |",
		"| Momentum 1d / 5d / 20d | +0.45% / +1.80% / +4.32% |",
		"| Price-Volume Correlation | 0.37 |",
		"## Ownership",
		"| Institutions | 61.00% |",
		"Concentration medium, large cap.",
		"## News Sentiment",
		"**positive** (score 62.5, impact 40.0) from 10 articles: 6 positive, 2 negative, 2 neutral.",
		"Topics: earnings, product",
		"- Apple beats estimates",
		"## AI Commentary",
		"### Summary",
		"### Conclusion",
		"## Agent Panel",
		"| Growth Value Investor | BUY | 8.0 | 195.00 | - |",
		"| Risk Management Expert | SELL | 6.0 | - | high |",
		"**Consensus:** BUY (split, 1 of 2 votes, avg confidence 7.0)",
		"> **Risk Management Expert:** Valuation stretched.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("analysis report missing %q", want)
		}
	}

	// Sections render in presentation order
	if strings.Index(md, "### Summary") > strings.Index(md, "### Conclusion") {
		t.Error("summary should precede conclusion")
	}
}

func TestFormatAnalysisReport_Minimal(t *testing.T) {
	a := &models.StockAnalysis{
		Symbol:         "XYZ",
		Market:         models.MarketUS,
		CompositeScore: 50,
		Recommendation: "hold",
		GeneratedAt:    time.Now(),
	}

	md := formatAnalysisReport(a, "")

	if !strings.Contains(md, "# XYZ\n") {
		t.Error("expected bare symbol heading when the name is unknown")
	}
	for _, absent := range []string{"## Quote", "## Technical Snapshot", "## Ownership", "## News Sentiment", "## AI Commentary", "## Agent Panel", "!["} {
		if strings.Contains(md, absent) {
			t.Errorf("minimal report should not contain %q", absent)
		}
	}
	if !strings.Contains(md, "not investment advice") {
		t.Error("footer should always be present")
	}
}

func TestFormatAnalysisReport_RawCommentary(t *testing.T) {
	a := &models.StockAnalysis{
		Symbol:         "XYZ",
		Market:         models.MarketUS,
		Recommendation: "hold",
		GeneratedAt:    time.Now(),
		Commentary:     "Unstructured model output.",
	}

	md := formatAnalysisReport(a, "")

	if !strings.Contains(md, "## AI Commentary") {
		t.Error("expected the commentary section")
	}
	if !strings.Contains(md, "Unstructured model output.") {
		t.Error("raw commentary should be used when no sections parsed")
	}
}
