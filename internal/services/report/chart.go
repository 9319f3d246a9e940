package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/calebmills/argus/internal/models"
)

// SMA overlay windows drawn on the price chart
const (
	smaShort = 20
	smaLong  = 50
)

// RenderPriceChart renders a PNG close-price chart with SMA20 and SMA50
// overlays. Overlays are drawn only when the history covers their
// window. Returns raw PNG bytes.
func RenderPriceChart(symbol string, bars []models.EODBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars, got %d", len(bars))
	}

	// Bars arrive newest first; the chart wants time ascending.
	n := len(bars)
	dates := make([]time.Time, n)
	closes := make([]float64, n)
	for i, b := range bars {
		dates[n-1-i] = b.Date
		closes[n-1-i] = b.Close
	}

	priceSeries := chart.TimeSeries{
		Name: symbol,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.0,
		},
		XValues: dates,
		YValues: closes,
	}

	series := []chart.Series{priceSeries}
	if xs, ys := smaSeries(dates, closes, smaShort); len(ys) > 0 {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("SMA %d", smaShort),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth: 1.5,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if xs, ys := smaSeries(dates, closes, smaLong); len(ys) > 0 {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("SMA %d", smaLong),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Close", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// smaSeries computes the rolling mean over period, aligned so each point
// sits on the last date of its window. Empty when the history is shorter
// than the period.
func smaSeries(dates []time.Time, closes []float64, period int) ([]time.Time, []float64) {
	if len(closes) < period {
		return nil, nil
	}
	xs := make([]time.Time, 0, len(closes)-period+1)
	ys := make([]float64, 0, len(closes)-period+1)

	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			xs = append(xs, dates[i])
			ys = append(ys, sum/float64(period))
		}
	}
	return xs, ys
}
