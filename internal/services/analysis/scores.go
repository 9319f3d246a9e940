package analysis

import (
	"math"

	"github.com/calebmills/argus/internal/models"
)

// Recommendation labels, strongest to weakest.
const (
	RecStrongBuy   = "strong buy"
	RecBuy         = "buy"
	RecCautiousBuy = "cautious buy"
	RecHold        = "hold"
	RecWait        = "wait"
	RecReduce      = "reduce"
	RecSell        = "sell"
)

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// fundamentalScore grades valuation, profitability, and leverage around a
// neutral 50. Metrics the provider did not report contribute nothing.
func fundamentalScore(info *models.StockInfo) float64 {
	score := 50.0
	if info == nil {
		return score
	}

	if pe := models.Deref(info.PE, 0); pe != 0 {
		switch {
		case pe > 0 && pe < 15:
			score += 15
		case pe >= 15 && pe < 25:
			score += 10
		case pe >= 30:
			score -= 10
		}
	}

	if pb := models.Deref(info.PB, 0); pb != 0 {
		switch {
		case pb > 0 && pb < 1.5:
			score += 15
		case pb >= 1.5 && pb < 3:
			score += 10
		case pb >= 5:
			score -= 10
		}
	}

	if roe := models.Deref(info.ROE, 0); roe != 0 {
		switch {
		case roe > 0.15:
			score += 10
		case roe > 0.10:
			score += 5
		case roe < 0.05:
			score -= 10
		}
	}

	if de := models.Deref(info.DebtToEquity, 0); de != 0 {
		switch {
		case de < 0.3:
			score += 10
		case de < 0.6:
			score += 5
		case de > 1.5:
			score -= 15
		}
	}

	if margin := models.Deref(info.ProfitMargin, 0); margin != 0 {
		switch {
		case margin > 0.20:
			score += 10
		case margin > 0.10:
			score += 5
		case margin < 0.05:
			score -= 10
		}
	}

	return clamp(score)
}

// technicalScreenScore grades the trend stack, raw momentum, and
// positioning for the screen blend. A missing volume ratio counts as
// average, a missing 52-week high as trading at the high.
func technicalScreenScore(t *models.TechnicalReport, high52 float64) float64 {
	score := 50.0
	if t == nil {
		return score
	}

	switch t.Trend {
	case models.TrendStrongBullish:
		score += 15
	case models.TrendBullish:
		score += 10
	case models.TrendStrongBearish:
		score -= 15
	case models.TrendBearish:
		score -= 10
	}

	switch {
	case t.RSI <= 30:
		score += 15 // Oversold
	case t.RSI < 70:
		score += 10
	case t.RSI >= 80:
		score -= 15
	}

	switch {
	case t.Momentum20 > 10:
		score += 15
	case t.Momentum20 > 5:
		score += 10
	case t.Momentum20 > 0:
		score += 5
	case t.Momentum20 < -10:
		score -= 15
	case t.Momentum20 < -5:
		score -= 10
	}

	ratio := t.VolumeRatio
	if ratio == 0 {
		ratio = 1
	}
	switch {
	case ratio > 1.5:
		score += 10
	case ratio > 1.2:
		score += 5
	case ratio < 0.7:
		score -= 5
	}

	var dist float64
	if high52 > 0 && t.Price > 0 {
		dist = (t.Price - high52) / high52 * 100
	}
	switch {
	case dist > -5:
		score += 5 // Near the 52-week high
	case dist < -30:
		score += 10 // Deeply discounted
	}

	return clamp(score)
}

// technicalDetailScore grades the derived signal labels for the deep dive.
func technicalDetailScore(t *models.TechnicalReport) float64 {
	score := 50.0
	if t == nil {
		return score
	}

	switch t.Trend {
	case models.TrendStrongBullish:
		score += 15
	case models.TrendBullish:
		score += 10
	case models.TrendStrongBearish:
		score -= 15
	case models.TrendBearish:
		score -= 10
	}

	switch {
	case t.RSI >= 30 && t.RSI <= 70:
		score += 10
	case t.RSI < 30:
		score += 5
	case t.RSI > 70:
		score -= 5
	}

	switch t.MACDLabel {
	case models.MACDBullishCrossover:
		score += 12
	case models.MACDBullish:
		score += 8
	case models.MACDBearishCrossover:
		score -= 12
	case models.MACDBearish:
		score -= 8
	}

	switch t.VolumeStatus {
	case models.VolumeBullishBreakout:
		score += 8
	case models.VolumeAboveAverage:
		score += 4
	case models.VolumeBearishSelloff:
		score -= 8
	}

	if t.Price > 0 && t.Support > 0 {
		if (t.Price-t.Support)/t.Price*100 < 2 {
			score += 3 // Sitting on support
		}
	}
	if t.Price > 0 && t.Resistance > 0 {
		if (t.Resistance-t.Price)/t.Price*100 > 5 {
			score += 2 // Room below resistance
		}
	}

	return clamp(score)
}

// buildChips derives the ownership profile from provider holdings data.
// Holding percentages stay as fractions; scoring converts where needed.
func buildChips(info *models.StockInfo) *models.ChipAnalysis {
	if info == nil {
		return nil
	}

	ch := &models.ChipAnalysis{
		InstitutionalPct: info.HeldPctInstitutions,
		InsiderPct:       info.HeldPctInsiders,
		ShortPct:         info.ShortPctOfFloat,
	}

	switch inst := models.Deref(info.HeldPctInstitutions, 0); {
	case inst > 0.7:
		ch.Concentration = "high"
	case inst > 0.4:
		ch.Concentration = "medium"
	default:
		ch.Concentration = "low"
	}

	switch {
	case info.MarketCap > 200_000_000_000:
		ch.CapClass = "large"
	case info.MarketCap > 10_000_000_000:
		ch.CapClass = "mid"
	default:
		ch.CapClass = "small"
	}

	ch.Score = chipScore(ch)
	return ch
}

// chipScore grades the ownership mix. Bands are expressed in percent.
func chipScore(ch *models.ChipAnalysis) float64 {
	score := 50.0
	if ch == nil {
		return score
	}

	inst := models.Deref(ch.InstitutionalPct, 0) * 100
	switch {
	case inst >= 40 && inst <= 80:
		score += 20
	case inst >= 20 && inst < 40, inst > 80 && inst <= 90:
		score += 10
	case inst > 90:
		score -= 10 // Crowded ownership
	}

	insider := models.Deref(ch.InsiderPct, 0) * 100
	switch {
	case insider >= 5 && insider <= 25:
		score += 10
	case insider >= 1 && insider < 5:
		score += 5
	case insider > 25:
		score -= 5
	}

	short := models.Deref(ch.ShortPct, 0) * 100
	switch {
	case short < 3:
		score += 12
	case short <= 5:
		score += 5
	case short > 10:
		score -= 10
	default:
		score -= 5
	}

	switch ch.Concentration {
	case "medium":
		score += 8
	case "high":
		score += 3
	case "low":
		score -= 3
	}

	return clamp(score)
}

// newsScore maps the sentiment summary onto the screening scale. How far
// the coverage leans from neutral sets the confidence of the move.
func newsScore(s *models.SentimentSummary) float64 {
	if s == nil {
		return 50
	}

	confidence := math.Min(10, math.Abs(s.Normalized)*10)
	switch s.Trend {
	case "positive":
		return clamp(50 + 5*confidence)
	case "negative":
		return clamp(50 - 5*confidence)
	default:
		return 50
	}
}

// individualComposite blends sentiment, technicals, and ownership into the
// deep-dive score. Sentiment carries half the weight, split between the
// raw score and its estimated impact.
func individualComposite(s *models.SentimentSummary, technical, chip float64) float64 {
	sentScore, impact := 50.0, 50.0
	if s != nil {
		sentScore, impact = s.Score, s.Impact
	}
	sentiment := sentScore*0.7 + impact*0.3
	return clamp(sentiment*0.5 + technical*0.3 + chip*0.2)
}

// recommendFromScore maps the deep-dive composite onto a seven-step call.
func recommendFromScore(score float64) string {
	switch {
	case score >= 80:
		return RecStrongBuy
	case score >= 70:
		return RecBuy
	case score >= 60:
		return RecCautiousBuy
	case score >= 50:
		return RecHold
	case score >= 40:
		return RecWait
	case score >= 30:
		return RecReduce
	default:
		return RecSell
	}
}

// screeningRecommendation maps the weighted screen blend onto a call.
// The screen scale has no wait step.
func screeningRecommendation(score float64) string {
	switch {
	case score >= 80:
		return RecStrongBuy
	case score >= 70:
		return RecBuy
	case score >= 60:
		return RecCautiousBuy
	case score >= 40:
		return RecHold
	case score >= 30:
		return RecReduce
	default:
		return RecSell
	}
}

// applyTrendGuard walks a buy call back one step when news sentiment and
// the price trend both point down.
func applyTrendGuard(rec string, s *models.SentimentSummary, t *models.TechnicalReport) string {
	if s == nil || t == nil || s.Trend != "negative" {
		return rec
	}
	if t.Trend != models.TrendBearish && t.Trend != models.TrendStrongBearish {
		return rec
	}

	switch rec {
	case RecStrongBuy, RecBuy:
		return RecCautiousBuy
	case RecCautiousBuy:
		return RecWait
	}
	return rec
}

// assessRisk grades volatility, valuation, and news tone, then folds the
// three into an overall level.
func assessRisk(info *models.StockInfo, t *models.TechnicalReport, s *models.SentimentSummary) *models.RiskAssessment {
	r := &models.RiskAssessment{}
	points := 0

	var vol float64
	if t != nil {
		vol = t.Volatility
	}
	switch {
	case vol > 40:
		r.Volatility = "high"
		points += 3
	case vol > 25:
		r.Volatility = "medium"
		points += 2
	default:
		r.Volatility = "low"
		points++
	}

	var pe float64
	if info != nil {
		pe = models.Deref(info.PE, 0)
	}
	switch {
	case pe > 30:
		r.Valuation = "expensive"
		points += 3
	case pe > 20:
		r.Valuation = "elevated"
		points += 2
	case pe > 10:
		r.Valuation = "fair"
		points++
	default:
		r.Valuation = "undervalued"
		points++
	}

	trend := "neutral"
	if s != nil && s.Trend != "" {
		trend = s.Trend
	}
	r.News = trend
	switch trend {
	case "negative":
		points += 3
	case "positive":
		points++
	default:
		points += 2
	}

	switch {
	case points >= 8:
		r.Overall = "high"
	case points >= 6:
		r.Overall = "medium"
	default:
		r.Overall = "low"
	}

	return r
}
