package gemini

import (
	"fmt"
	"strings"

	"github.com/calebmills/argus/internal/models"
)

// BuildAnalysisPrompt creates the six-section commentary prompt for a stock
func BuildAnalysisPrompt(a *models.StockAnalysis) string {
	name := a.Name
	if name == "" {
		name = a.Symbol
	}

	prompt := fmt.Sprintf(`You are a seasoned equity analyst. Review the data for %s (%s) and respond with exactly six numbered sections:

1. Summary
2. Technical Analysis
3. Fundamental Analysis
4. Risk Assessment
5. Investment Suggestion
6. Conclusion

Ground every claim in the data below and keep each section under 120 words.
`, name, a.Symbol)

	prompt += dataBlock(a)

	return prompt
}

// BuildAgentPrompt frames the same stock data through a single investing
// persona. The response format is fixed so the votes can be tallied.
func BuildAgentPrompt(agentName, style string, a *models.StockAnalysis) string {
	name := a.Name
	if name == "" {
		name = a.Symbol
	}

	prompt := fmt.Sprintf(`You are %s, an investor whose approach is: %s

Evaluate %s (%s) strictly from that perspective and respond in this exact format:

DECISION: BUY, HOLD or SELL
CONFIDENCE: a number from 0 to 10
TARGET: a 12-month price target, or NONE
RISK: the single biggest risk, one sentence
RATIONALE: two or three sentences in your own voice
`, agentName, style, name, a.Symbol)

	prompt += dataBlock(a)

	return prompt
}

// BuildScreenCommentaryPrompt creates the prompt for value-screen commentary
func BuildScreenCommentaryPrompt(report *models.ScreenReport, topN int) string {
	if topN <= 0 || topN > len(report.Candidates) {
		topN = len(report.Candidates)
	}
	if topN > 10 {
		topN = 10
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`You are writing the morning value-screen commentary for an investment desk.

The screen covered %d symbols and %d passed the value filter. Composite scores run 0-10.

Top candidates:
`, report.Universe, report.Screened))

	for _, c := range report.Candidates[:topN] {
		sb.WriteString(fmt.Sprintf("- %s %s (%s): score %.1f, rated %s, price %.2f, PE %s, PB %s, yield %s\n",
			c.Symbol, c.Name, c.Sector,
			c.Scores.Composite, c.Scores.Rating, c.Price,
			ratio(c.PE), ratio(c.PB), pct(c.DividendYield)))
	}

	if len(report.SectorStats) > 0 {
		sb.WriteString("\nSector highlights:\n")
		for _, s := range report.SectorStats {
			sb.WriteString(fmt.Sprintf("- %s: %d candidates, average score %.1f, best %s\n",
				s.Sector, s.Count, s.AvgScore, s.Best))
		}
	}

	sb.WriteString(`
Write three short paragraphs: the overall read on where value sits today, the most compelling names and why, and the caveats a buyer should weigh. Plain prose, no headings, no bullet lists.`)

	return sb.String()
}

// dataBlock renders whatever market data the analysis carries. Missing
// sections are simply omitted so a thin analysis still yields a usable prompt.
func dataBlock(a *models.StockAnalysis) string {
	var sb strings.Builder

	if q := a.Quote; q != nil {
		sb.WriteString(fmt.Sprintf(`
Price Data:
- Current Price: %.2f %s
- Change: %.2f (%.2f%%)
- Volume: %d
`, q.Price, q.Currency, q.Change, q.ChangePct, q.Volume))
	}

	if t := a.Technical; t != nil {
		sb.WriteString(fmt.Sprintf(`
Technical Signals:
- Trend: %s
- RSI(14): %.1f
- MACD: %.3f (signal %.3f, %s)
- MA5/MA20/MA50/MA200: %.2f / %.2f / %.2f / %.2f
- Support: %.2f, Resistance: %.2f
- Volume: %s (20-day average %d)
- 20-day Momentum: %.1f%%
- Annualised Volatility: %.1f%%
`,
			t.Trend, t.RSI,
			t.MACD, t.MACDSignal, t.MACDLabel,
			t.MA5, t.MA20, t.MA50, t.MA200,
			t.Support, t.Resistance,
			t.VolumeStatus, t.AvgVolume,
			t.Momentum20, t.Volatility))
	}

	if info := a.Info; info != nil {
		sb.WriteString(fmt.Sprintf(`
Fundamentals:
- Sector: %s / %s
- Market Cap: %.0fM
- P/E: %s, Forward P/E: %s, P/B: %s
- EPS: %s, Dividend Yield: %s
- ROE: %s, Profit Margin: %s
- Debt/Equity: %s
- Revenue Growth: %s
- 52-Week Range: %.2f - %.2f
`,
			info.Sector, info.Industry,
			info.MarketCap/1e6,
			ratio(info.PE), ratio(info.ForwardPE), ratio(info.PB),
			ratio(info.EPS), pct(info.DividendYield),
			pct(info.ROE), pct(info.ProfitMargin),
			ratio(info.DebtToEquity),
			pct(info.RevenueGrowth),
			info.Low52Week, info.High52Week))
	}

	if s := a.Sentiment; s != nil && s.Count > 0 {
		sb.WriteString(fmt.Sprintf(`
News Sentiment (%d articles):
- Score: %.0f/100 (%s)
- Hot Topics: %s
`, s.Count, s.Score, s.Trend, strings.Join(s.Topics, ", ")))
		for _, h := range s.Headlines {
			sb.WriteString("- " + h + "\n")
		}
	}

	if ch := a.Chips; ch != nil {
		sb.WriteString(fmt.Sprintf(`
Ownership:
- Institutional: %s, Insider: %s
- Short Interest: %s of float
- Concentration: %s (%s cap)
`,
			pct(ch.InstitutionalPct), pct(ch.InsiderPct),
			pct(ch.ShortPct),
			ch.Concentration, ch.CapClass))
	}

	return sb.String()
}

// ratio formats an optional metric, keeping missing values honest
func ratio(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

// pct formats an optional fraction as a percentage
func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *p*100)
}
