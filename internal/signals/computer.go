// Package signals provides signal computation
package signals

import (
	"time"

	"github.com/calebmills/argus/internal/models"
)

// Computer derives technical reports from price history
type Computer struct{}

// NewComputer creates a new signal computer
func NewComputer() *Computer {
	return &Computer{}
}

// Compute builds the technical report for a symbol. Bars are newest
// first; each moving average falls back to the nearest shorter window
// when history runs out.
func (c *Computer) Compute(symbol string, bars []models.EODBar) *models.TechnicalReport {
	report := &models.TechnicalReport{
		Symbol:      symbol,
		GeneratedAt: time.Now(),
	}
	if len(bars) == 0 {
		report.RSI = 50
		report.Trend = models.TrendNeutral
		report.VolumeStatus = models.VolumeNormal
		return report
	}

	price := bars[0].Close
	ma5 := smaOr(bars, 5, price)
	ma10 := smaOr(bars, 10, ma5)
	ma20 := smaOr(bars, 20, ma10)
	ma50 := smaOr(bars, 50, ma20)
	ma200 := smaOr(bars, 200, ma50)

	macd, macdSignal, macdHist := MACD(bars)
	support, resistance := SupportResistance(bars, 20)

	report.Price = price
	report.MA5 = ma5
	report.MA10 = ma10
	report.MA20 = ma20
	report.MA50 = ma50
	report.MA200 = ma200
	report.RSI = RSI(bars, 14)
	report.MACD = macd
	report.MACDSignal = macdSignal
	report.MACDHistogram = macdHist
	report.MACDLabel = MACDLabel(bars)
	report.Trend = DetectTrend(price, ma5, ma10, ma20)
	report.Support = support
	report.Resistance = resistance
	report.AvgVolume = AverageVolume(bars, 20)
	report.VolumeRatio = VolumeRatio(bars, 20)
	report.VolumeStatus = VolumeStatus(bars)
	report.Volatility = Volatility(bars)
	report.Momentum1 = ChangePct(bars, 1)
	report.Momentum5 = ChangePct(bars, 5)
	report.Momentum20 = ChangePct(bars, 20)
	report.PVCorrelation = PriceVolumeCorrelation(bars, 20)

	return report
}

// smaOr returns the period SMA, or alt when history is too short
func smaOr(bars []models.EODBar, period int, alt float64) float64 {
	if v := SMA(bars, period); v > 0 {
		return v
	}
	return alt
}
