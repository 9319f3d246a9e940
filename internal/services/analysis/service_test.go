package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
	"github.com/calebmills/argus/internal/services/sentiment"
)

type fakeMarket struct {
	quote    *models.Quote
	quoteErr error
	bars     []models.EODBar
	barsErr  error
	info     *models.StockInfo
	infoErr  error
	news     []*models.NewsItem
	newsErr  error

	historyDays int
	newsLimit   int
}

func (f *fakeMarket) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeMarket) GetHistory(ctx context.Context, symbol string, opts ...interfaces.HistoryOption) ([]models.EODBar, error) {
	var params interfaces.HistoryParams
	for _, opt := range opts {
		opt(&params)
	}
	f.historyDays = params.Days

	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeMarket) GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeMarket) GetNews(ctx context.Context, symbol string, limit int) ([]*models.NewsItem, error) {
	f.newsLimit = limit
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.news, nil
}

func (f *fakeMarket) FetchSP500Symbols(ctx context.Context) ([]string, error) {
	return nil, fmt.Errorf("no universe in this fake")
}

type fakeReports struct {
	reportPath string
	chartPath  string
	err        error
}

func (f *fakeReports) WriteScreenReport(report *models.ScreenReport) (string, error) {
	return f.reportPath, f.err
}

func (f *fakeReports) WriteAnalysisReport(analysis *models.StockAnalysis, bars []models.EODBar) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return f.reportPath, f.chartPath, nil
}

type fakeHistory struct {
	records   []*models.AnalysisRecord
	appendErr error
}

func (f *fakeHistory) Append(ctx context.Context, record *models.AnalysisRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) Get(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("record %s missing", id)
}

func (f *fakeHistory) List(ctx context.Context, filter models.HistoryFilter) ([]*models.AnalysisRecord, error) {
	return f.records, nil
}

func (f *fakeHistory) Count(ctx context.Context) (int, error) {
	return len(f.records), nil
}

func (f *fakeHistory) Close() error { return nil }

// flatBars builds n identical bars, newest first. A flat tape keeps every
// indicator at its neutral reading.
func flatBars(n int, price float64) []models.EODBar {
	bars := make([]models.EODBar, n)
	now := time.Now()
	for i := range bars {
		bars[i] = models.EODBar{
			Date:   now.AddDate(0, 0, -i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return bars
}

const sectionedReply = `1. Summary
The business keeps compounding.

2. Technical Analysis
Price sits above every major average.

3. Fundamental Analysis
Margins are best in class.

4. Risk Assessment
Valuation leaves no room for error.

5. Investment Suggestion
Accumulate on weakness.

6. Conclusion
A quality franchise at a full price.`

func newTestMarket() *fakeMarket {
	return &fakeMarket{
		quote: &models.Quote{Symbol: "AAPL", Price: 180, PreviousClose: 178, Change: 2, ChangePct: 1.12},
		bars:  flatBars(250, 180),
		info: &models.StockInfo{
			Symbol:              "AAPL",
			Name:                "Apple Inc.",
			Sector:              "Technology",
			Price:               180,
			MarketCap:           2_800_000_000_000,
			PE:                  models.Float(24),
			PB:                  models.Float(2.8),
			ROE:                 models.Float(0.4),
			DebtToEquity:        models.Float(0.5),
			ProfitMargin:        models.Float(0.25),
			HeldPctInstitutions: models.Float(0.61),
			HeldPctInsiders:     models.Float(0.02),
			ShortPctOfFloat:     models.Float(0.01),
			High52Week:          190,
		},
		news: []*models.NewsItem{
			{Title: "Apple beats on strong revenue growth", PublishedAt: time.Now().Add(-2 * time.Hour)},
			{Title: "Analysts upgrade on services boost", PublishedAt: time.Now().Add(-4 * time.Hour)},
		},
	}
}

func newTestAnalysis(market *fakeMarket, commentary *fakeCommentary, reports *fakeReports, history *fakeHistory) *Service {
	logger := common.NewLogger("error")
	var c interfaces.CommentaryClient
	if commentary != nil {
		c = commentary
	}
	var r interfaces.ReportService
	if reports != nil {
		r = reports
	}
	var h interfaces.HistoryStore
	if history != nil {
		h = history
	}
	return NewService(market, c, sentiment.NewService(logger), r, h, common.AnalysisConfig{
		FundamentalWeight:   0.4,
		TechnicalWeight:     0.3,
		NewsWeight:          0.3,
		MaxConcurrentAgents: 3,
	}, logger)
}

func TestAnalyze_FullPipeline(t *testing.T) {
	market := newTestMarket()
	commentary := &fakeCommentary{replies: map[string]string{"analysis": sectionedReply}}
	reports := &fakeReports{reportPath: "reports/AAPL.md", chartPath: "reports/AAPL.png"}
	history := &fakeHistory{}

	svc := newTestAnalysis(market, commentary, reports, history)
	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "aapl", SaveReport: true})

	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "AAPL", analysis.Symbol)
	assert.Equal(t, models.MarketUS, analysis.Market)
	assert.Equal(t, "Apple Inc.", analysis.Name)
	require.NotNil(t, analysis.Quote)
	require.NotNil(t, analysis.Info)

	require.NotNil(t, analysis.Sentiment)
	assert.Equal(t, 2, analysis.Sentiment.Count)
	assert.Equal(t, "positive", analysis.Sentiment.Trend)

	require.NotNil(t, analysis.Technical, "250 bars are enough for the full indicator set")
	assert.Greater(t, analysis.Technical.Score, float64(0))

	require.NotNil(t, analysis.Chips)
	assert.Equal(t, "medium", analysis.Chips.Concentration)
	assert.Equal(t, "large", analysis.Chips.CapClass)

	require.NotNil(t, analysis.Scores)
	assert.Greater(t, analysis.Scores.Fundamental, float64(50), "quality metrics beat the baseline")
	assert.NotEmpty(t, analysis.Scores.ScreeningCall)

	assert.GreaterOrEqual(t, analysis.CompositeScore, float64(0))
	assert.LessOrEqual(t, analysis.CompositeScore, float64(100))
	assert.NotEmpty(t, analysis.Recommendation)

	require.NotNil(t, analysis.Risk)
	assert.Equal(t, "low", analysis.Risk.Volatility, "a flat tape has no volatility")

	assert.Equal(t, sectionedReply, analysis.Commentary)
	assert.Contains(t, analysis.Sections, "summary")
	assert.Contains(t, analysis.Sections, "conclusion")

	assert.Equal(t, "reports/AAPL.md", analysis.ReportPath)
	assert.Equal(t, "reports/AAPL.png", analysis.ChartPath)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, models.RecordTypeAnalysis, rec.Type)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, analysis.Recommendation, rec.Recommendation)

	var stored models.StockAnalysis
	require.NoError(t, json.Unmarshal([]byte(rec.Payload), &stored))
	assert.Equal(t, analysis.CompositeScore, stored.CompositeScore)
}

func TestAnalyze_NormalizesSymbol(t *testing.T) {
	market := newTestMarket()
	svc := newTestAnalysis(market, nil, nil, nil)

	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "2330"})

	require.NoError(t, err)
	assert.Equal(t, "2330.TW", analysis.Symbol)
	assert.Equal(t, models.MarketTW, analysis.Market)
}

func TestAnalyze_EmptySymbol(t *testing.T) {
	svc := newTestAnalysis(newTestMarket(), nil, nil, nil)

	_, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "   "})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbol")
}

func TestAnalyze_QuoteFailureIsFatal(t *testing.T) {
	market := newTestMarket()
	market.quoteErr = fmt.Errorf("upstream timeout")

	svc := newTestAnalysis(market, nil, nil, nil)
	_, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch quote")
}

func TestAnalyze_DegradesWithoutData(t *testing.T) {
	market := newTestMarket()
	market.barsErr = fmt.Errorf("history offline")
	market.infoErr = fmt.Errorf("info offline")
	market.newsErr = fmt.Errorf("news offline")

	svc := newTestAnalysis(market, nil, nil, nil)
	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL"})

	require.NoError(t, err, "only the quote is required")
	assert.Nil(t, analysis.Technical)
	assert.Nil(t, analysis.Chips)
	require.NotNil(t, analysis.Sentiment, "no news still summarizes to neutral")
	assert.Equal(t, 0, analysis.Sentiment.Count)

	require.NotNil(t, analysis.Scores)
	assert.Equal(t, float64(50), analysis.Scores.Fundamental)
	assert.Equal(t, float64(50), analysis.Scores.Technical)
	assert.Equal(t, float64(50), analysis.Scores.News)
	assert.InDelta(t, 50, analysis.Scores.Screening, 0.0001)

	assert.Equal(t, float64(50), analysis.CompositeScore)
	assert.Equal(t, RecHold, analysis.Recommendation)

	require.NotNil(t, analysis.Risk)
	assert.Equal(t, "low", analysis.Risk.Overall)
}

func TestAnalyze_DefaultWindows(t *testing.T) {
	market := newTestMarket()
	svc := newTestAnalysis(market, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL"})

	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryDays, market.historyDays)
	assert.Equal(t, DefaultNewsLimit, market.newsLimit)
}

func TestAnalyze_ExplicitWindows(t *testing.T) {
	market := newTestMarket()
	svc := newTestAnalysis(market, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL", Days: 90, NewsLimit: 3})

	require.NoError(t, err)
	assert.Equal(t, 90, market.historyDays)
	assert.Equal(t, 3, market.newsLimit)
}

func TestAnalyze_CommentaryFailureNonFatal(t *testing.T) {
	market := newTestMarket()
	commentary := &fakeCommentary{errs: map[string]error{"analysis": fmt.Errorf("model overloaded")}}

	svc := newTestAnalysis(market, commentary, nil, nil)
	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL"})

	require.NoError(t, err)
	assert.Empty(t, analysis.Commentary)
	assert.Empty(t, analysis.Sections)
}

func TestAnalyze_WithAgents(t *testing.T) {
	market := newTestMarket()
	commentary := &fakeCommentary{replies: map[string]string{"analysis": sectionedReply}}
	for _, agent := range agentPanel {
		commentary.replies[agent.Name] = agentReply("BUY", 8, "200")
	}

	svc := newTestAnalysis(market, commentary, nil, nil)
	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL", WithAgents: true})

	require.NoError(t, err)
	require.Len(t, analysis.Agents, len(agentPanel))
	require.NotNil(t, analysis.Consensus)
	assert.Equal(t, "BUY", analysis.Consensus.Decision)
	assert.Equal(t, "strong", analysis.Consensus.Level)
}

func TestAnalyze_AgentsSkippedWithoutCommentary(t *testing.T) {
	market := newTestMarket()
	svc := newTestAnalysis(market, nil, nil, nil)

	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL", WithAgents: true})

	require.NoError(t, err)
	assert.Nil(t, analysis.Agents)
	assert.Nil(t, analysis.Consensus)
}

func TestAnalyze_ReportFailureNonFatal(t *testing.T) {
	market := newTestMarket()
	reports := &fakeReports{err: fmt.Errorf("disk full")}

	svc := newTestAnalysis(market, nil, reports, nil)
	analysis, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL", SaveReport: true})

	require.NoError(t, err)
	assert.Empty(t, analysis.ReportPath)
	assert.Empty(t, analysis.ChartPath)
}

func TestAnalyze_HistoryFailureNonFatal(t *testing.T) {
	market := newTestMarket()
	history := &fakeHistory{appendErr: fmt.Errorf("store closed")}

	svc := newTestAnalysis(market, nil, nil, history)
	_, err := svc.Analyze(context.Background(), models.AnalyzeOptions{Symbol: "AAPL"})

	require.NoError(t, err)
	assert.Empty(t, history.records)
}
