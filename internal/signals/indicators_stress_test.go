package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calebmills/argus/internal/models"
)

// === SMA stress tests ===

func TestSMA_NilBars(t *testing.T) {
	assert.Equal(t, 0.0, SMA(nil, 5))
}

func TestSMA_ZeroPeriod(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30})
	assert.Equal(t, 0.0, SMA(bars, 0))
}

func TestSMA_NegativePeriod(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30})
	assert.Equal(t, 0.0, SMA(bars, -1))
}

func TestSMA_PeriodGreaterThanLen(t *testing.T) {
	bars := generateBars([]float64{10, 20})
	assert.Equal(t, 0.0, SMA(bars, 5))
}

// === RSI stress tests ===

func TestRSI_EmptyBars(t *testing.T) {
	assert.Equal(t, 50.0, RSI(nil, 14), "nil bars should read neutral")
	assert.Equal(t, 50.0, RSI([]models.EODBar{}, 14), "empty bars should read neutral")
}

func TestRSI_SingleBar(t *testing.T) {
	bars := generateBars([]float64{100})
	assert.Equal(t, 50.0, RSI(bars, 14), "one bar is not enough for any period")
}

func TestRSI_MonotonicGrowth(t *testing.T) {
	// Every change is a gain, so the loss average is zero.
	bars := generateTrendBars(130, 1.0, 30)
	assert.Equal(t, 100.0, RSI(bars, 14))
}

func TestRSI_MonotonicDecline(t *testing.T) {
	bars := generateTrendBars(50, -1.0, 30)
	assert.Equal(t, 0.0, RSI(bars, 14))
}

func TestRSI_FlatTape(t *testing.T) {
	// No gains and no losses reads neutral, not overbought.
	bars := generateBars(repeat(100, 20))
	assert.InDelta(t, 50.0, RSI(bars, 14), 0.001)
}

func TestRSI_Alternating(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 98
		}
	}
	bars := generateBars(closes)
	assert.InDelta(t, 50.0, RSI(bars, 14), 0.001, "equal gains and losses should balance out")
}

func TestRSI_ExtremeValues(t *testing.T) {
	bars := generateBars([]float64{1e15, 1e14, 1e13, 1e12, 1e11, 1e10, 1e9, 1e8, 1e7, 1e6, 1e5, 1e4, 1e3, 1e2, 1e1})
	result := RSI(bars, 14)
	assert.False(t, math.IsNaN(result))
	assert.False(t, math.IsInf(result, 0))
	assert.GreaterOrEqual(t, result, 0.0)
	assert.LessOrEqual(t, result, 100.0)
}

// === MACD stress tests ===

func TestMACD_EmptyBars(t *testing.T) {
	line, signal, hist := MACD(nil)
	assert.Equal(t, 0.0, line)
	assert.Equal(t, 0.0, signal)
	assert.Equal(t, 0.0, hist)
}

func TestMACD_SingleBar(t *testing.T) {
	bars := generateBars([]float64{100})
	line, signal, hist := MACD(bars)
	assert.Equal(t, 0.0, line)
	assert.Equal(t, 0.0, signal)
	assert.Equal(t, 0.0, hist)
}

func TestMACD_FlatSeries(t *testing.T) {
	bars := generateBars(repeat(42, 60))
	line, signal, hist := MACD(bars)
	assert.InDelta(t, 0.0, line, 1e-9)
	assert.InDelta(t, 0.0, signal, 1e-9)
	assert.InDelta(t, 0.0, hist, 1e-9)
}

func TestMACDLabel_EmptyBars(t *testing.T) {
	assert.Equal(t, models.MACDBearish, MACDLabel(nil))
}

func TestMACDLabel_SustainedRise(t *testing.T) {
	// A long steady climb keeps the line above its signal with no
	// fresh crossover on the last bar.
	bars := generateTrendBars(130, 1.0, 60)
	assert.Equal(t, models.MACDBullish, MACDLabel(bars))
}

// === Volume stress tests ===

func TestAverageVolume_NilBars(t *testing.T) {
	assert.Equal(t, int64(0), AverageVolume(nil, 20))
}

func TestAverageVolume_FewerBarsThanPeriod(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30})
	bars[0].Volume = 100
	bars[1].Volume = 200
	bars[2].Volume = 300
	assert.Equal(t, int64(200), AverageVolume(bars, 20))
}

func TestVolumeRatio_NilBars(t *testing.T) {
	assert.InDelta(t, 1.0, VolumeRatio(nil, 20), 0.001)
}

func TestVolumeRatio_AllZeroVolume(t *testing.T) {
	bars := generateBars(repeat(50, 25))
	for i := range bars {
		bars[i].Volume = 0
	}
	assert.InDelta(t, 1.0, VolumeRatio(bars, 20), 0.001)
}

func TestVolumeStatus_EmptyBars(t *testing.T) {
	assert.Equal(t, models.VolumeNormal, VolumeStatus(nil))
}

// === ChangePct stress tests ===

func TestChangePct_InsufficientHistory(t *testing.T) {
	bars := generateBars([]float64{100})
	assert.Equal(t, 0.0, ChangePct(bars, 5))
}

func TestChangePct_ZeroBase(t *testing.T) {
	bars := generateBars([]float64{10, 0})
	assert.Equal(t, 0.0, ChangePct(bars, 1))
}

func TestChangePct_NonPositiveWindow(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30})
	assert.Equal(t, 0.0, ChangePct(bars, 0))
	assert.Equal(t, 0.0, ChangePct(bars, -3))
}

// === Volatility stress tests ===

func TestVolatility_TooFewBars(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility(generateBars([]float64{10, 11})))
}

func TestVolatility_FlatSeries(t *testing.T) {
	bars := generateBars(repeat(75, 30))
	assert.InDelta(t, 0.0, Volatility(bars), 0.001)
}

func TestVolatility_ZeroCloses(t *testing.T) {
	// Zero previous closes are skipped rather than dividing by zero.
	bars := generateBars([]float64{10, 0, 0, 0, 0})
	result := Volatility(bars)
	assert.False(t, math.IsNaN(result))
	assert.False(t, math.IsInf(result, 0))
}

// === SupportResistance stress tests ===

func TestSupportResistance_EmptyBars(t *testing.T) {
	support, resistance := SupportResistance(nil, 20)
	assert.Equal(t, 0.0, support)
	assert.Equal(t, 0.0, resistance)
}

func TestSupportResistance_SingleBar(t *testing.T) {
	bars := generateBars([]float64{100})
	support, resistance := SupportResistance(bars, 20)
	assert.InDelta(t, 100.0, support, 0.001)
	assert.InDelta(t, 100.0, resistance, 0.001)
}

func TestSupportResistance_RepeatedLevelBelowPrice(t *testing.T) {
	// 100.04 and 99.97 both round to the 100.0 level, which repeats
	// and sits below the current price of 102.
	bars := generateBars([]float64{102, 100.04, 99.97, 101, 98})
	support, resistance := SupportResistance(bars, 5)
	assert.InDelta(t, 100.0, support, 0.001)
	assert.InDelta(t, 102.0, resistance, 0.001, "no repeated level above price falls back to the window high")
}

// === 52-week range stress tests ===

func TestHigh52Week_EmptyBars(t *testing.T) {
	assert.Equal(t, 0.0, High52Week(nil))
}

func TestLow52Week_EmptyBars(t *testing.T) {
	assert.Equal(t, 0.0, Low52Week(nil))
}

func TestHighLow52Week_SingleBar(t *testing.T) {
	bars := []models.EODBar{{High: 42.5, Low: 40.0}}
	assert.InDelta(t, 42.5, High52Week(bars), 0.001)
	assert.InDelta(t, 40.0, Low52Week(bars), 0.001)
}

func TestHigh52Week_IgnoresBarsBeyondWindow(t *testing.T) {
	bars := generateBars(repeat(50, 260))
	bars[255].High = 999
	assert.InDelta(t, 50.5, High52Week(bars), 0.001, "a spike older than 252 bars must not count")
}

func TestLow52Week_IgnoresBarsBeyondWindow(t *testing.T) {
	bars := generateBars(repeat(50, 260))
	bars[255].Low = 0.01
	assert.InDelta(t, 49.5, Low52Week(bars), 0.001)
}

// === PriceVolumeCorrelation stress tests ===

func TestPriceVolumeCorrelation_InsufficientBars(t *testing.T) {
	assert.Equal(t, 0.0, PriceVolumeCorrelation(nil, 20))
	assert.Equal(t, 0.0, PriceVolumeCorrelation(generateBars([]float64{10}), 20))
}

func TestPriceVolumeCorrelation_VolumeTracksPrice(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30, 40, 50})
	for i := range bars {
		bars[i].Volume = int64(bars[i].Close * 1000)
	}
	// Period larger than the window caps to the available bars.
	assert.InDelta(t, 1.0, PriceVolumeCorrelation(bars, 20), 0.001)
}

func TestPriceVolumeCorrelation_VolumeFadesWithPrice(t *testing.T) {
	bars := generateBars([]float64{10, 20, 30, 40, 50})
	for i := range bars {
		bars[i].Volume = int64((60 - bars[i].Close) * 1000)
	}
	assert.InDelta(t, -1.0, PriceVolumeCorrelation(bars, 5), 0.001)
}

func TestPriceVolumeCorrelation_FlatVolume(t *testing.T) {
	// generateBars keeps volume constant, so there is nothing to correlate.
	bars := generateBars([]float64{10, 20, 30, 40, 50})
	assert.Equal(t, 0.0, PriceVolumeCorrelation(bars, 5))
}

// === Computer stress tests ===

func TestCompute_SingleBar(t *testing.T) {
	computer := NewComputer()
	bars := generateBars([]float64{102})

	report := computer.Compute("NVDA", bars)

	assert.Equal(t, "NVDA", report.Symbol)
	assert.InDelta(t, 102.0, report.Price, 0.001)
	// Every moving average falls back down the chain to the price.
	assert.InDelta(t, 102.0, report.MA5, 0.001)
	assert.InDelta(t, 102.0, report.MA200, 0.001)
	assert.Equal(t, 50.0, report.RSI)
	assert.InDelta(t, 1.0, report.VolumeRatio, 0.001)
	assert.Equal(t, 0.0, report.PVCorrelation)
	assert.False(t, math.IsNaN(report.Volatility))
}

func TestCompute_MomentumWindows(t *testing.T) {
	computer := NewComputer()
	bars := generateTrendBars(110, 1.0, 30) // closes 110, 109, ..., 81

	report := computer.Compute("AAPL", bars)

	assert.InDelta(t, (110.0-109.0)/109.0*100, report.Momentum1, 0.001)
	assert.InDelta(t, (110.0-105.0)/105.0*100, report.Momentum5, 0.001)
	assert.InDelta(t, (110.0-90.0)/90.0*100, report.Momentum20, 0.001)
}

func TestCompute_ExtremePrices(t *testing.T) {
	computer := NewComputer()
	bars := generateBars(repeat(1e12, 30))

	report := computer.Compute("2330.TW", bars)

	assert.False(t, math.IsNaN(report.MACD))
	assert.False(t, math.IsInf(report.MACD, 0))
	assert.False(t, math.IsNaN(report.Volatility))
	assert.False(t, math.IsNaN(report.RSI))
}
