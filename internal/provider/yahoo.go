package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/coindash/coindash/internal/httputil"
	"github.com/coindash/coindash/internal/models"
)

const yahooURL = "https://query1.finance.yahoo.com"

// Yahoo rejects Go's default user agent.
const yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) coindash/1.0"

// YahooClient fetches quotes and candle history from the Yahoo Finance v8
// chart API, the same source the original dashboard used.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		baseURL:    yahooURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		},
	}
}

func (c *YahooClient) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	data, err := c.fetchChart(ctx, asset.Symbol, url.Values{
		"range":    {"1d"},
		"interval": {"5m"},
	})
	if err != nil {
		return nil, err
	}

	meta := data.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo returned invalid market price for %s", asset.Symbol)
	}

	fetchedAt := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		fetchedAt = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return &models.Quote{
		Symbol:    asset.Symbol,
		Price:     meta.RegularMarketPrice,
		Source:    c.Name(),
		FetchedAt: fetchedAt,
	}, nil
}

func (c *YahooClient) History(ctx context.Context, asset models.Asset, rng models.TimeRange) (*models.Series, error) {
	params := url.Values{"interval": {yahooInterval(rng)}}
	if rng == models.RangeMax {
		params.Set("range", "max")
	} else {
		now := time.Now()
		params.Set("period1", fmt.Sprintf("%d", now.Add(-rng.Window()).Unix()))
		params.Set("period2", fmt.Sprintf("%d", now.Unix()))
	}

	data, err := c.fetchChart(ctx, asset.Symbol, params)
	if err != nil {
		return nil, err
	}

	result := data.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo returned no quote indicators for %s", asset.Symbol)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		close := deref(quote.Close, i)
		if close <= 0 {
			continue // gaps come back as nulls
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      deref(quote.Open, i),
			High:      deref(quote.High, i),
			Low:       deref(quote.Low, i),
			Close:     close,
			Volume:    deref(quote.Volume, i),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("yahoo returned no usable candles for %s (%s)", asset.Symbol, rng)
	}
	sortCandles(candles)

	return &models.Series{
		Symbol:  asset.Symbol,
		Range:   rng,
		Candles: candles,
		Source:  c.Name(),
	}, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol string, params url.Values) (*yahooChartResponse, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", yahooUserAgent)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	var data yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo returned no result for %s", symbol)
	}
	return &data, nil
}

func yahooInterval(rng models.TimeRange) string {
	switch rng.Interval() {
	case 5 * time.Minute:
		return "5m"
	case time.Hour:
		return "1h"
	}
	return "1d"
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// sortCandles orders a series timestamp-ascending. Charts require it and
// upstream response order is not a contract.
func sortCandles(candles []models.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}
