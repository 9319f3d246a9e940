// Package yahoo provides a client for the Yahoo Finance API
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	cookieURL  string
	wikiURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	crumbMu sync.Mutex
	crumb   string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithCookieURL sets the session cookie bootstrap URL
func WithCookieURL(cookieURL string) ClientOption {
	return func(c *Client) {
		c.cookieURL = cookieURL
	}
}

// WithWikiURL sets the S&P 500 constituents page URL
func WithWikiURL(wikiURL string) ClientOption {
	return func(c *Client) {
		c.wikiURL = wikiURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client. Yahoo gates some
// endpoints behind a session cookie and crumb, so the client carries a
// cookie jar and bootstraps the session on first use.
func NewClient(opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:   DefaultBaseURL,
		cookieURL: DefaultCookieURL,
		wikiURL:   DefaultWikiURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// apiErrorBody is the error object Yahoo embeds in 200 responses
type apiErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yfValue is Yahoo's number wrapper: {"raw": 1.23, "fmt": "1.23"}.
// A missing field or empty object leaves Raw nil.
type yfValue struct {
	Raw *float64 `json:"raw"`
}

func (v yfValue) ptr() *float64 {
	return v.Raw
}

func (v yfValue) or(fallback float64) float64 {
	if v.Raw == nil {
		return fallback
	}
	return *v.Raw
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ensureCrumb returns the cached session crumb, bootstrapping the
// session when needed: a request to the cookie host plants the cookie,
// then the getcrumb endpoint issues the matching crumb.
func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()

	if c.crumb != "" {
		return c.crumb, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cookieURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create cookie request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cookie bootstrap failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create crumb request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    "empty crumb",
			Endpoint:   "/v1/test/getcrumb",
		}
	}

	c.crumb = crumb
	c.logger.Debug().Msg("Yahoo session crumb refreshed")
	return crumb, nil
}

func (c *Client) invalidateCrumb() {
	c.crumbMu.Lock()
	c.crumb = ""
	c.crumbMu.Unlock()
}

// chartResponse represents the v8 chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency            string  `json:"currency"`
				Symbol              string  `json:"symbol"`
				ExchangeName        string  `json:"exchangeName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				PreviousClose       float64 `json:"previousClose"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"chart"`
}

// GetQuote retrieves a live price snapshot via the chart endpoint,
// which needs no session crumb
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	var resp chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("quote for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	prevClose := meta.PreviousClose
	if prevClose == 0 {
		prevClose = meta.ChartPreviousClose
	}

	quote := &models.Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: prevClose,
		Volume:        meta.RegularMarketVolume,
		Currency:      meta.Currency,
		Timestamp:     time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if prevClose > 0 {
		quote.Change = quote.Price - prevClose
		quote.ChangePct = quote.Change / prevClose * 100
	}

	return quote, nil
}

// GetHistory retrieves daily bars, newest first
func (c *Client) GetHistory(ctx context.Context, symbol string, opts ...interfaces.HistoryOption) ([]models.EODBar, error) {
	p := &interfaces.HistoryParams{Days: 365}
	for _, opt := range opts {
		opt(p)
	}

	to := p.To
	if to.IsZero() {
		to = time.Now()
	}
	from := p.From
	if from.IsZero() {
		days := p.Days
		if days <= 0 {
			days = 365
		}
		from = to.AddDate(0, 0, -days)
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	var resp chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("history for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adjclose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjclose = result.Indicators.AdjClose[0].AdjClose
	}

	// Bars arrive oldest first with nulls on non-trading days
	bars := make([]models.EODBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.EODBar{
			Date:     time.Unix(ts, 0).UTC(),
			Close:    *quote.Close[i],
			AdjClose: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		if i < len(adjclose) && adjclose[i] != nil {
			bar.AdjClose = *adjclose[i]
		}
		bars = append(bars, bar)
	}

	// Reverse to newest first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Price history fetched")
	return bars, nil
}

// quoteSummaryResponse represents the v10 quoteSummary API response
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiErrorBody        `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	Price struct {
		ShortName          string  `json:"shortName"`
		LongName           string  `json:"longName"`
		Currency           string  `json:"currency"`
		ExchangeName       string  `json:"exchangeName"`
		MarketState        string  `json:"marketState"`
		RegularMarketPrice yfValue `json:"regularMarketPrice"`
		MarketCap          yfValue `json:"marketCap"`
	} `json:"price"`
	SummaryDetail struct {
		TrailingPE       yfValue `json:"trailingPE"`
		ForwardPE        yfValue `json:"forwardPE"`
		DividendYield    yfValue `json:"dividendYield"`
		Beta             yfValue `json:"beta"`
		FiftyTwoWeekHigh yfValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  yfValue `json:"fiftyTwoWeekLow"`
		AverageVolume    yfValue `json:"averageVolume"`
	} `json:"summaryDetail"`
	KeyStatistics struct {
		PriceToBook             yfValue `json:"priceToBook"`
		TrailingEps             yfValue `json:"trailingEps"`
		SharesOutstanding       yfValue `json:"sharesOutstanding"`
		HeldPercentInstitutions yfValue `json:"heldPercentInstitutions"`
		HeldPercentInsiders     yfValue `json:"heldPercentInsiders"`
		ShortPercentOfFloat     yfValue `json:"shortPercentOfFloat"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		ReturnOnEquity yfValue `json:"returnOnEquity"`
		DebtToEquity   yfValue `json:"debtToEquity"`
		ProfitMargins  yfValue `json:"profitMargins"`
		RevenueGrowth  yfValue `json:"revenueGrowth"`
		EarningsGrowth yfValue `json:"earningsGrowth"`
		FreeCashflow   yfValue `json:"freeCashflow"`
		TotalCash      yfValue `json:"totalCash"`
		TotalDebt      yfValue `json:"totalDebt"`
	} `json:"financialData"`
	AssetProfile struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Country             string `json:"country"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
}

// GetStockInfo retrieves fundamentals and ownership data. The
// quoteSummary endpoint requires a session crumb; a stale session gets
// one refresh before the error is surfaced.
func (c *Client) GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	path := "/v10/finance/quoteSummary/" + url.PathEscape(symbol)

	crumb, err := c.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("modules", "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile")
	params.Set("crumb", crumb)

	var resp quoteSummaryResponse
	err = c.get(ctx, path, params, &resp)

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		c.invalidateCrumb()
		if crumb, err = c.ensureCrumb(ctx); err != nil {
			return nil, err
		}
		params.Set("crumb", crumb)
		err = c.get(ctx, path, params, &resp)
	}
	if err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("stock info for %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no stock info for %s", symbol)
	}

	r := resp.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	info := &models.StockInfo{
		Symbol:              symbol,
		Name:                name,
		Sector:              r.AssetProfile.Sector,
		Industry:            r.AssetProfile.Industry,
		Exchange:            r.Price.ExchangeName,
		Currency:            r.Price.Currency,
		Country:             r.AssetProfile.Country,
		Price:               r.Price.RegularMarketPrice.or(0),
		MarketCap:           r.Price.MarketCap.or(0),
		PE:                  r.SummaryDetail.TrailingPE.ptr(),
		ForwardPE:           r.SummaryDetail.ForwardPE.ptr(),
		PB:                  r.KeyStatistics.PriceToBook.ptr(),
		EPS:                 r.KeyStatistics.TrailingEps.ptr(),
		DividendYield:       r.SummaryDetail.DividendYield.ptr(),
		ROE:                 r.FinancialData.ReturnOnEquity.ptr(),
		ProfitMargin:        r.FinancialData.ProfitMargins.ptr(),
		RevenueGrowth:       r.FinancialData.RevenueGrowth.ptr(),
		EarningsGrowth:      r.FinancialData.EarningsGrowth.ptr(),
		FreeCashflow:        r.FinancialData.FreeCashflow.ptr(),
		TotalCash:           r.FinancialData.TotalCash.ptr(),
		TotalDebt:           r.FinancialData.TotalDebt.ptr(),
		Beta:                r.SummaryDetail.Beta.ptr(),
		HeldPctInstitutions: r.KeyStatistics.HeldPercentInstitutions.ptr(),
		HeldPctInsiders:     r.KeyStatistics.HeldPercentInsiders.ptr(),
		ShortPctOfFloat:     r.KeyStatistics.ShortPercentOfFloat.ptr(),
		High52Week:          r.SummaryDetail.FiftyTwoWeekHigh.or(0),
		Low52Week:           r.SummaryDetail.FiftyTwoWeekLow.or(0),
		AvgVolume:           int64(r.SummaryDetail.AverageVolume.or(0)),
		SharesOutstanding:   int64(r.KeyStatistics.SharesOutstanding.or(0)),
		Summary:             r.AssetProfile.LongBusinessSummary,
		LastUpdated:         time.Now(),
	}

	// Yahoo reports debt-to-equity as a percentage (154.3 rather than
	// 1.543); normalise to a plain ratio
	if d := r.FinancialData.DebtToEquity.Raw; d != nil {
		info.DebtToEquity = models.Float(*d / 100)
	}

	return info, nil
}

// searchResponse represents the v1 search API response
type searchResponse struct {
	News []struct {
		UUID                string   `json:"uuid"`
		Title               string   `json:"title"`
		Publisher           string   `json:"publisher"`
		Link                string   `json:"link"`
		ProviderPublishTime int64    `json:"providerPublishTime"`
		Type                string   `json:"type"`
		RelatedTickers      []string `json:"relatedTickers"`
	} `json:"news"`
}

// GetNews retrieves recent news articles for a symbol
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]*models.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", strconv.Itoa(limit))
	params.Set("quotesCount", "0")

	var resp searchResponse
	if err := c.get(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}

	news := make([]*models.NewsItem, 0, len(resp.News))
	for _, item := range resp.News {
		if item.Title == "" {
			continue
		}
		news = append(news, &models.NewsItem{
			Title:          item.Title,
			Publisher:      item.Publisher,
			URL:            item.Link,
			PublishedAt:    time.Unix(item.ProviderPublishTime, 0).UTC(),
			Type:           item.Type,
			RelatedSymbols: item.RelatedTickers,
		})
		if len(news) >= limit {
			break
		}
	}

	return news, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
