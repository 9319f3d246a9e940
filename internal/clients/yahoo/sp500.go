package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultWikiURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

	// A constituents table with fewer rows than this is a failed or
	// mangled scrape
	minConstituents = 400
)

// FetchSP500Symbols scrapes the current S&P 500 constituent list from
// Wikipedia. A failed or implausible scrape falls back to the bundled
// list rather than erroring, so a screen can always run.
func (c *Client) FetchSP500Symbols(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wikiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("S&P 500 scrape failed, using bundled list")
		return fallbackSP500(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("S&P 500 scrape failed, using bundled list")
		return fallbackSP500(), nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("S&P 500 page unparseable, using bundled list")
		return fallbackSP500(), nil
	}

	symbols := parseConstituents(doc)
	if len(symbols) < minConstituents {
		c.logger.Warn().Int("found", len(symbols)).Msg("S&P 500 table implausibly small, using bundled list")
		return fallbackSP500(), nil
	}

	c.logger.Info().Int("symbols", len(symbols)).Msg("S&P 500 constituents fetched")
	return symbols, nil
}

// parseConstituents pulls ticker symbols from the first column of the
// constituents table. Class-share dots become dashes (BRK.B -> BRK-B)
// to match Yahoo's symbology.
func parseConstituents(doc *goquery.Document) []string {
	table := doc.Find("table.wikitable.sortable").First()
	if table.Length() == 0 {
		table = doc.Find("table#constituents").First()
	}

	var symbols []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}

		symbol := strings.Join(strings.Fields(cell.Text()), "")
		symbol = strings.ReplaceAll(symbol, ".", "-")
		if symbol == "" || len(symbol) > 5 {
			return
		}
		symbols = append(symbols, symbol)
	})

	return symbols
}

// fallbackSP500 returns a bundled subset of large-cap constituents,
// enough for a representative screen when the scrape is unavailable
func fallbackSP500() []string {
	return []string{
		// Technology
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "NFLX", "ADBE", "CRM",
		"ORCL", "CSCO", "AVGO", "TXN", "QCOM", "IBM", "AMD", "INTC", "PYPL", "UBER",
		// Financials
		"BRK-B", "JPM", "BAC", "WFC", "GS", "MS", "C", "AXP", "USB", "PNC",
		"TFC", "COF", "SCHW", "BLK", "CB", "MMC", "ICE", "CME", "SPGI", "MCO",
		// Healthcare
		"UNH", "JNJ", "PFE", "ABBV", "MRK", "TMO", "ABT", "LLY", "BMY", "AMGN",
		"GILD", "MDT", "ISRG", "DHR", "SYK", "BSX", "REGN", "VRTX", "BIIB", "ZTS",
		// Consumer
		"PG", "KO", "PEP", "WMT", "COST", "HD", "MCD", "SBUX", "NKE", "LOW",
		"TGT", "CVS", "WBA", "KMB", "CL", "GIS", "K", "CAG", "CPB", "CLX",
		// Industrials
		"BA", "HON", "UPS", "CAT", "MMM", "GE", "LMT", "RTX", "DE", "FDX",
		"UNP", "CSX", "NSC", "LUV", "DAL", "AAL", "UAL", "WM", "RSG", "EMR",
		// Energy
		"XOM", "CVX", "COP", "EOG", "SLB", "MPC", "VLO", "PSX", "OXY", "HAL",
		// Utilities
		"NEE", "DUK", "SO", "AEP", "EXC", "XEL", "SRE", "D", "PEG", "EIX",
		// Materials
		"LIN", "APD", "ECL", "DD", "DOW", "PPG", "SHW", "FCX", "NUE", "VMC",
		// Real estate
		"AMT", "PLD", "CCI", "EQIX", "SPG", "O", "WELL", "DLR", "PSA", "EQR",
		// Communication and payments
		"V", "MA", "BKNG", "DIS", "CMCSA", "VZ", "T", "PM", "MO", "TMUS",
	}
}
