package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coindash/coindash/internal/httputil"
	"github.com/coindash/coindash/internal/models"
)

const alphaVantageURL = "https://www.alphavantage.co"

// AlphaVantageClient fetches spot prices via the CURRENCY_EXCHANGE_RATE
// endpoint. Quote-only: Alpha Vantage's free tier has no usable candle
// history for crypto.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewAlphaVantageClient(apiKey string) *AlphaVantageClient {
	return &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    alphaVantageURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

func (c *AlphaVantageClient) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	q := url.Values{}
	q.Set("function", "CURRENCY_EXCHANGE_RATE")
	q.Set("from_currency", asset.Base)
	q.Set("to_currency", "USD")
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/query?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage returned status %d", resp.StatusCode)
	}

	// Alpha Vantage reports throttling and bad requests as 200 responses
	// with a Note / Error Message body instead of the rate payload.
	var data struct {
		Rate struct {
			ExchangeRate  string `json:"5. Exchange Rate"`
			LastRefreshed string `json:"6. Last Refreshed"`
		} `json:"Realtime Currency Exchange Rate"`
		Note         string `json:"Note"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if data.Rate.ExchangeRate == "" {
		if data.Note != "" {
			return nil, fmt.Errorf("alphavantage throttled: %s", data.Note)
		}
		if data.ErrorMessage != "" {
			return nil, fmt.Errorf("alphavantage error: %s", data.ErrorMessage)
		}
		return nil, fmt.Errorf("alphavantage returned no exchange rate for %s", asset.Base)
	}

	price, err := strconv.ParseFloat(data.Rate.ExchangeRate, 64)
	if err != nil {
		return nil, fmt.Errorf("parse exchange rate %q: %w", data.Rate.ExchangeRate, err)
	}
	if price <= 0 {
		return nil, fmt.Errorf("invalid price: %f", price)
	}

	fetchedAt := time.Now().UTC()
	if t, err := time.Parse("2006-01-02 15:04:05", data.Rate.LastRefreshed); err == nil {
		fetchedAt = t.UTC()
	}

	return &models.Quote{
		Symbol:    asset.Symbol,
		Price:     price,
		Source:    c.Name(),
		FetchedAt: fetchedAt,
	}, nil
}
