package screener

import (
	"github.com/calebmills/argus/internal/models"
)

// Metric weights for the composite value score
const (
	weightPE       = 0.25
	weightPB       = 0.20
	weightDividend = 0.20
	weightDebt     = 0.15
	weightCashFlow = 0.20
)

// scoreStock grades one stock on the five value metrics. Missing metrics are
// scored on their own terms: an unreported P/E scores 0 while unreported debt
// sits at the neutral midpoint, since absence means different things per metric.
func scoreStock(info *models.StockInfo) models.ValueScores {
	s := models.ValueScores{
		PE:       scorePE(info.PE),
		PB:       scorePB(info.PB),
		Dividend: scoreDividend(info.DividendYield),
		Debt:     scoreDebt(info.DebtToEquity),
		CashFlow: scoreCashFlow(fcfYield(info)),
	}
	s.Composite = s.PE*weightPE + s.PB*weightPB + s.Dividend*weightDividend + s.Debt*weightDebt + s.CashFlow*weightCashFlow
	s.Rating = rating(s.Composite)
	return s
}

// fcfYield derives free-cash-flow yield from reported FCF and market cap
func fcfYield(info *models.StockInfo) *float64 {
	if info.FreeCashflow == nil || info.MarketCap <= 0 {
		return nil
	}
	return models.Float(*info.FreeCashflow / info.MarketCap)
}

func scorePE(pe *float64) float64 {
	if pe == nil || *pe <= 0 {
		return 0
	}
	v := *pe
	if v <= 10 {
		return 10
	}
	if v <= 15 {
		return 8
	}
	if v <= 20 {
		return 6
	}
	if v <= 25 {
		return 4
	}
	if v <= 30 {
		return 2
	}
	return 1
}

func scorePB(pb *float64) float64 {
	if pb == nil || *pb <= 0 {
		return 0
	}
	v := *pb
	if v <= 1 {
		return 10
	}
	if v <= 1.5 {
		return 8
	}
	if v <= 2 {
		return 6
	}
	if v <= 3 {
		return 4
	}
	if v <= 5 {
		return 2
	}
	return 1
}

// scoreDividend rewards a sustainable payout. Very high yields score worse
// than moderate ones since they usually signal a falling price, and a zero
// payout still beats an unreported one.
func scoreDividend(y *float64) float64 {
	if y == nil {
		return 0
	}
	v := *y
	if v == 0 {
		return 2
	}
	if v > 0.12 {
		return 4
	}
	if v > 0.08 {
		return 8
	}
	if v >= 0.02 {
		return 10
	}
	if v >= 0.01 {
		return 6
	}
	return 3
}

// scoreDebt treats an unreported ratio as neutral rather than clean: zero
// debt is excellent, unknown debt is merely unknown.
func scoreDebt(d *float64) float64 {
	if d == nil {
		return 5
	}
	v := *d
	if v <= 0.3 {
		return 10
	}
	if v <= 0.6 {
		return 8
	}
	if v <= 1 {
		return 6
	}
	if v <= 1.5 {
		return 4
	}
	if v <= 2 {
		return 2
	}
	return 1
}

func scoreCashFlow(yield *float64) float64 {
	if yield == nil || *yield <= 0 {
		return 0
	}
	v := *yield
	if v >= 0.08 {
		return 10
	}
	if v >= 0.06 {
		return 8
	}
	if v >= 0.04 {
		return 6
	}
	if v >= 0.02 {
		return 4
	}
	return 2
}

func rating(composite float64) string {
	if composite >= 8 {
		return "excellent"
	}
	if composite >= 6 {
		return "good"
	}
	if composite >= 4 {
		return "normal"
	}
	if composite >= 2 {
		return "poor"
	}
	return "bad"
}
