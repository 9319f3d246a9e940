// Package signals provides technical indicator calculations
package signals

import (
	"math"

	"github.com/calebmills/argus/internal/models"
)

// SMA calculates Simple Moving Average for the given period
func SMA(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// RSI calculates Relative Strength Index
func RSI(bars []models.EODBar, period int) float64 {
	if len(bars) < period+1 {
		return 50 // Neutral default
	}

	var gains, losses float64
	for i := 0; i < period; i++ {
		change := bars[i].Close - bars[i+1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat tape
		}
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ewmSeries applies exponential smoothing with the given span, seeded
// from the first value. Input and output are oldest first.
func ewmSeries(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}

	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func closesOldestFirst(bars []models.EODBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[len(bars)-1-i] = bar.Close
	}
	return closes
}

func macdSeries(bars []models.EODBar) (macd, signal []float64) {
	closes := closesOldestFirst(bars)
	fast := ewmSeries(closes, 12)
	slow := ewmSeries(closes, 26)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	return macd, ewmSeries(macd, 9)
}

// MACD calculates Moving Average Convergence Divergence from 12 and 26
// period EMAs with a 9 period signal line.
// Returns MACD line, Signal line, and Histogram.
func MACD(bars []models.EODBar) (float64, float64, float64) {
	if len(bars) == 0 {
		return 0, 0, 0
	}

	macd, signal := macdSeries(bars)
	last := len(macd) - 1
	return macd[last], signal[last], macd[last] - signal[last]
}

// MACDLabel classifies the MACD line against its signal line, flagging
// a fresh crossover when the difference changed sign on the latest bar
func MACDLabel(bars []models.EODBar) string {
	if len(bars) == 0 {
		return models.MACDBearish
	}

	macd, signal := macdSeries(bars)
	last := len(macd) - 1
	diff := macd[last] - signal[last]
	prevDiff := diff
	if last > 0 {
		prevDiff = macd[last-1] - signal[last-1]
	}

	switch {
	case diff > 0 && prevDiff <= 0:
		return models.MACDBullishCrossover
	case diff < 0 && prevDiff >= 0:
		return models.MACDBearishCrossover
	case diff > 0:
		return models.MACDBullish
	default:
		return models.MACDBearish
	}
}

// AverageVolume calculates average volume over a period
func AverageVolume(bars []models.EODBar, period int) int64 {
	if len(bars) < period {
		period = len(bars)
	}
	if period == 0 {
		return 0
	}

	var sum int64
	for i := 0; i < period; i++ {
		sum += bars[i].Volume
	}
	return sum / int64(period)
}

// VolumeRatio calculates current volume as ratio of the period average
func VolumeRatio(bars []models.EODBar, period int) float64 {
	if len(bars) == 0 {
		return 1.0
	}

	avg := AverageVolume(bars, period)
	if avg == 0 {
		return 1.0
	}

	return float64(bars[0].Volume) / float64(avg)
}

// VolumeStatus classifies today's volume against the 20-day average.
// A heavy tape reads as a breakout or a selloff depending on which way
// price moved over the past five sessions.
func VolumeStatus(bars []models.EODBar) string {
	if len(bars) == 0 {
		return models.VolumeNormal
	}

	ratio := VolumeRatio(bars, 20)
	switch {
	case ratio > 1.5:
		if ChangePct(bars, 5) > 0 {
			return models.VolumeBullishBreakout
		}
		return models.VolumeBearishSelloff
	case ratio > 1.2:
		return models.VolumeAboveAverage
	case ratio < 0.7:
		return models.VolumeBelowAverage
	default:
		return models.VolumeNormal
	}
}

// ChangePct returns the percentage price change over the last n trading
// days, 0 when history is too short
func ChangePct(bars []models.EODBar, n int) float64 {
	if len(bars) <= n || n <= 0 {
		return 0
	}

	base := bars[n].Close
	if base == 0 {
		return 0
	}
	return (bars[0].Close - base) / base * 100
}

// PriceVolumeCorrelation measures how closely volume tracked price over
// the newest period bars, as a Pearson coefficient in [-1, 1]. Zero
// variance on either side reads as no relationship.
func PriceVolumeCorrelation(bars []models.EODBar, period int) float64 {
	if period > len(bars) {
		period = len(bars)
	}
	if period < 2 {
		return 0
	}

	var sumC, sumV float64
	for i := 0; i < period; i++ {
		sumC += bars[i].Close
		sumV += float64(bars[i].Volume)
	}
	meanC := sumC / float64(period)
	meanV := sumV / float64(period)

	var cov, varC, varV float64
	for i := 0; i < period; i++ {
		dc := bars[i].Close - meanC
		dv := float64(bars[i].Volume) - meanV
		cov += dc * dv
		varC += dc * dc
		varV += dv * dv
	}
	if varC == 0 || varV == 0 {
		return 0
	}
	return cov / math.Sqrt(varC*varV)
}

// Volatility returns the annualised standard deviation of daily
// returns, in percent
func Volatility(bars []models.EODBar) float64 {
	if len(bars) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 0; i < len(bars)-1; i++ {
		prev := bars[i+1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252) * 100
}

// SupportResistance estimates near-term support and resistance from the
// last lookback closes. Levels are closes rounded to one decimal that
// repeat within the window; support is the highest level below the
// current price, resistance the lowest level above it. When no level
// repeats on a side, the window extreme stands in.
func SupportResistance(bars []models.EODBar, lookback int) (support, resistance float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	if len(bars) < lookback {
		lookback = len(bars)
	}

	price := bars[0].Close
	counts := make(map[float64]int, lookback)
	lowest := math.MaxFloat64
	highest := 0.0
	for i := 0; i < lookback; i++ {
		c := bars[i].Close
		level := math.Round(c*10) / 10
		counts[level]++
		if c < lowest {
			lowest = c
		}
		if c > highest {
			highest = c
		}
	}

	for level, n := range counts {
		if n < 2 {
			continue
		}
		if level < price && level > support {
			support = level
		}
		if level > price && (resistance == 0 || level < resistance) {
			resistance = level
		}
	}

	if support == 0 {
		support = lowest
	}
	if resistance == 0 {
		resistance = highest
	}
	return support, resistance
}

// High52Week returns the highest high in the last 252 trading days
func High52Week(bars []models.EODBar) float64 {
	period := 252
	if len(bars) < period {
		period = len(bars)
	}

	high := 0.0
	for i := 0; i < period; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
	}
	return high
}

// Low52Week returns the lowest low in the last 252 trading days
func Low52Week(bars []models.EODBar) float64 {
	period := 252
	if len(bars) < period {
		period = len(bars)
	}

	low := math.MaxFloat64
	for i := 0; i < period; i++ {
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	if low == math.MaxFloat64 {
		return 0
	}
	return low
}

// DetectTrend classifies the short-term trend from the moving-average
// stack: a fully ordered stack is a strong trend, price and MA5 both
// clear of MA20 is an ordinary one, anything else is neutral.
func DetectTrend(price, ma5, ma10, ma20 float64) models.TrendType {
	switch {
	case price > ma5 && ma5 > ma10 && ma10 > ma20:
		return models.TrendStrongBullish
	case price > ma5 && ma5 > ma20:
		return models.TrendBullish
	case price < ma5 && ma5 < ma10 && ma10 < ma20:
		return models.TrendStrongBearish
	case price < ma5 && ma5 < ma20:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
