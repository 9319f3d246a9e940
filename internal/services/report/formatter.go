package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/models"
)

const footer = "---\n*Generated by Argus. For research use only, not investment advice.*\n"

// Commentary sections in presentation order with display headings
var commentarySections = []struct{ key, title string }{
	{"summary", "Summary"},
	{"technical", "Technical View"},
	{"fundamental", "Fundamental View"},
	{"risk", "Risks"},
	{"suggestion", "Suggested Action"},
	{"conclusion", "Conclusion"},
}

// formatScreenReport generates the markdown for a screening run
func formatScreenReport(report *models.ScreenReport) string {
	var sb strings.Builder

	sb.WriteString("# Value Screen Report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", report.GeneratedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("**Universe:** %d symbols | **Screened:** %d | **Candidates:** %d\n",
		report.Universe, report.Screened, len(report.Candidates)))
	if report.Duration > 0 {
		sb.WriteString(fmt.Sprintf("**Duration:** %s\n", report.Duration.Round(time.Second)))
	}
	sb.WriteString("\n")

	sb.WriteString("Ranked on five value metrics, each scored 0-10 and blended: ")
	sb.WriteString("P/E (25%), P/B (20%), dividend yield (20%), debt to equity (15%), free-cash-flow yield (20%).\n\n")

	if len(report.Candidates) > 0 {
		sb.WriteString("## Top Candidates\n\n")
		sb.WriteString("| Rank | Symbol | Name | Sector | Price | P/E | P/B | Dividend | D/E | Score | Rating |\n")
		sb.WriteString("|------|--------|------|--------|-------|-----|-----|----------|-----|-------|--------|\n")
		for _, c := range report.Candidates {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.2f | %s | %s | %s | %s | %.2f | %s |\n",
				c.Rank, c.Symbol, c.Name, orDash(c.Sector), c.Price,
				ratioCell(c.PE), ratioCell(c.PB), percentCell(c.DividendYield), ratioCell(c.DebtToEquity),
				c.Scores.Composite, c.Scores.Rating,
			))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No candidates passed the screen.\n\n")
	}

	if len(report.SectorStats) > 0 {
		sb.WriteString("## Sector Breakdown\n\n")
		sb.WriteString("| Sector | Candidates | Avg Score | Best |\n")
		sb.WriteString("|--------|------------|-----------|------|\n")
		for _, st := range report.SectorStats {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %s |\n", st.Sector, st.Count, st.AvgScore, st.Best))
		}
		sb.WriteString("\n")
	}

	if report.Commentary != "" {
		sb.WriteString("## Market Commentary\n\n")
		sb.WriteString(strings.TrimSpace(report.Commentary))
		sb.WriteString("\n\n")
	}

	sb.WriteString(footer)
	return sb.String()
}

// formatAnalysisReport generates the markdown for a single-stock deep
// dive. chartName is the chart file next to the report, empty when no
// chart was rendered.
func formatAnalysisReport(a *models.StockAnalysis, chartName string) string {
	var sb strings.Builder

	if a.Name != "" {
		sb.WriteString(fmt.Sprintf("# %s - %s\n\n", a.Symbol, a.Name))
	} else {
		sb.WriteString(fmt.Sprintf("# %s\n\n", a.Symbol))
	}
	sb.WriteString(fmt.Sprintf("**Market:** %s | **Generated:** %s\n", a.Market, a.GeneratedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("**Composite Score:** %.1f / 100\n", a.CompositeScore))
	sb.WriteString(fmt.Sprintf("**Recommendation:** %s\n", a.Recommendation))
	if a.Risk != nil {
		sb.WriteString(fmt.Sprintf("**Risk:** %s (volatility %s, valuation %s, news %s)\n",
			a.Risk.Overall, a.Risk.Volatility, a.Risk.Valuation, a.Risk.News))
	}
	sb.WriteString("\n")

	if chartName != "" {
		sb.WriteString(fmt.Sprintf("![%s price chart](%s)\n\n", a.Symbol, chartName))
	}

	writeQuoteSection(&sb, a)
	writeScoreSection(&sb, a.Scores)
	writeTechnicalSection(&sb, a.Technical)
	writeOwnershipSection(&sb, a.Chips)
	writeSentimentSection(&sb, a.Sentiment)
	writeCommentarySection(&sb, a)
	writeAgentSection(&sb, a)

	sb.WriteString(footer)
	return sb.String()
}

func writeQuoteSection(sb *strings.Builder, a *models.StockAnalysis) {
	q := a.Quote
	if q == nil {
		return
	}
	sb.WriteString("## Quote\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Price | %.2f %s |\n", q.Price, q.Currency))
	sb.WriteString(fmt.Sprintf("| Change | %s (%s%%) |\n", common.FormatSigned(q.Change), common.FormatSigned(q.ChangePct)))
	if q.Volume > 0 {
		sb.WriteString(fmt.Sprintf("| Volume | %d |\n", q.Volume))
	}
	cap := q.MarketCap
	if cap == 0 && a.Info != nil {
		cap = a.Info.MarketCap
	}
	if cap > 0 {
		sb.WriteString(fmt.Sprintf("| Market Cap | %s |\n", common.FormatMarketCap(cap)))
	}
	if a.Info != nil && a.Info.High52Week > 0 {
		sb.WriteString(fmt.Sprintf("| 52-Week Range | %.2f - %.2f |\n", a.Info.Low52Week, a.Info.High52Week))
	}
	sb.WriteString("\n")
}

func writeScoreSection(sb *strings.Builder, scores *models.ScoreBreakdown) {
	if scores == nil {
		return
	}
	sb.WriteString("## Score Breakdown\n\n")
	sb.WriteString("| Component | Score |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Fundamental | %.1f |\n", scores.Fundamental))
	sb.WriteString(fmt.Sprintf("| Technical | %.1f |\n", scores.Technical))
	sb.WriteString(fmt.Sprintf("| News | %.1f |\n", scores.News))
	sb.WriteString(fmt.Sprintf("| Ownership | %.1f |\n", scores.Chip))
	sb.WriteString("\n")
	if scores.ScreeningCall != "" {
		sb.WriteString(fmt.Sprintf("**Screen blend:** %.1f (%s)\n\n", scores.Screening, scores.ScreeningCall))
	}
}

func writeTechnicalSection(sb *strings.Builder, t *models.TechnicalReport) {
	if t == nil {
		return
	}
	sb.WriteString("## Technical Snapshot\n\n")
	sb.WriteString("| Indicator | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trend | %s |\n", t.Trend))
	sb.WriteString(fmt.Sprintf("| RSI (14) | %.1f |\n", t.RSI))
	sb.WriteString(fmt.Sprintf("| MACD | %.3f (%s) |\n", t.MACD, t.MACDLabel))
	sb.WriteString(fmt.Sprintf("| MA5 / MA20 / MA50 | %.2f / %.2f / %.2f |\n", t.MA5, t.MA20, t.MA50))
	if t.MA200 > 0 {
		sb.WriteString(fmt.Sprintf("| MA200 | %.2f |\n", t.MA200))
	}
	if t.Support > 0 || t.Resistance > 0 {
		sb.WriteString(fmt.Sprintf("| Support / Resistance | %.2f / %.2f |\n", t.Support, t.Resistance))
	}
	sb.WriteString(fmt.Sprintf("| Volume | %.2fx 20-day average (%s) |\n", t.VolumeRatio, t.VolumeStatus))
	sb.WriteString(fmt.Sprintf("| Volatility | %.1f%% annualised |\n", t.Volatility))
	sb.WriteString(fmt.Sprintf("| Momentum 1d / 5d / 20d | %s%% / %s%% / %s%% |\n",
		common.FormatSigned(t.Momentum1), common.FormatSigned(t.Momentum5), common.FormatSigned(t.Momentum20)))
	sb.WriteString(fmt.Sprintf("| Price-Volume Correlation | %.2f |\n", t.PVCorrelation))
	sb.WriteString("\n")
}

func writeOwnershipSection(sb *strings.Builder, ch *models.ChipAnalysis) {
	if ch == nil {
		return
	}
	sb.WriteString("## Ownership\n\n")
	sb.WriteString("| Holder | Share |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Institutions | %s |\n", percentCell(ch.InstitutionalPct)))
	sb.WriteString(fmt.Sprintf("| Insiders | %s |\n", percentCell(ch.InsiderPct)))
	sb.WriteString(fmt.Sprintf("| Short Interest | %s |\n", percentCell(ch.ShortPct)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Concentration %s, %s cap.\n\n", ch.Concentration, ch.CapClass))
}

func writeSentimentSection(sb *strings.Builder, sent *models.SentimentSummary) {
	if sent == nil || sent.Count == 0 {
		return
	}
	sb.WriteString("## News Sentiment\n\n")
	sb.WriteString(fmt.Sprintf("**%s** (score %.1f, impact %.1f) from %d articles: %d positive, %d negative, %d neutral.\n\n",
		sent.Trend, sent.Score, sent.Impact, sent.Count, sent.Positive, sent.Negative, sent.Neutral))
	if len(sent.Topics) > 0 {
		sb.WriteString(fmt.Sprintf("Topics: %s\n\n", strings.Join(sent.Topics, ", ")))
	}
	if len(sent.Headlines) > 0 {
		sb.WriteString("Recent headlines:\n\n")
		for _, h := range sent.Headlines {
			sb.WriteString(fmt.Sprintf("- %s\n", h))
		}
		sb.WriteString("\n")
	}
}

func writeCommentarySection(sb *strings.Builder, a *models.StockAnalysis) {
	if len(a.Sections) == 0 && a.Commentary == "" {
		return
	}
	sb.WriteString("## AI Commentary\n\n")
	if len(a.Sections) == 0 {
		sb.WriteString(strings.TrimSpace(a.Commentary))
		sb.WriteString("\n\n")
		return
	}
	for _, sec := range commentarySections {
		text, ok := a.Sections[sec.key]
		if !ok || text == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", sec.title))
		sb.WriteString(strings.TrimSpace(text))
		sb.WriteString("\n\n")
	}
}

func writeAgentSection(sb *strings.Builder, a *models.StockAnalysis) {
	if len(a.Agents) == 0 {
		return
	}
	sb.WriteString("## Agent Panel\n\n")
	sb.WriteString("| Agent | Stance | Confidence | Target | Risk |\n")
	sb.WriteString("|-------|--------|------------|--------|------|\n")
	for _, op := range a.Agents {
		target := "-"
		if op.Target != nil {
			target = fmt.Sprintf("%.2f", *op.Target)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %s | %s |\n",
			op.Agent, op.Stance, op.Confidence, target, orDash(op.Risk)))
	}
	sb.WriteString("\n")

	if c := a.Consensus; c != nil {
		total := 0
		for _, n := range c.Votes {
			total += n
		}
		sb.WriteString(fmt.Sprintf("**Consensus:** %s (%s, %d of %d votes, avg confidence %.1f)\n\n",
			c.Decision, c.Level, c.Votes[c.Decision], total, c.AvgConfidence))
	}

	for _, op := range a.Agents {
		if op.Rationale != "" {
			sb.WriteString(fmt.Sprintf("> **%s:** %s\n\n", op.Agent, op.Rationale))
		}
	}
}

// ratioCell renders an optional ratio metric, N/A when unreported
func ratioCell(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return common.FormatRatio(*p)
}

// percentCell renders an optional fractional metric as a percentage
func percentCell(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return common.FormatPercent(*p)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
