package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coindash/coindash/internal/httputil"
	"github.com/coindash/coindash/internal/models"
)

const coingeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient fetches quotes from simple/price and candle history from
// coins/{id}/market_chart.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    coingeckoURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
	}
}

func (c *CoinGeckoClient) Name() string { return "coingecko" }

func (c *CoinGeckoClient) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	q := url.Values{}
	q.Set("ids", asset.CoinGeckoID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	q.Set("include_last_updated_at", "true")
	reqURL := c.baseURL + "/simple/price?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var data map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	entry, ok := data[asset.CoinGeckoID]
	if !ok {
		return nil, fmt.Errorf("coingecko returned no data for %s", asset.CoinGeckoID)
	}
	price := entry["usd"]
	if price <= 0 {
		return nil, fmt.Errorf("invalid price: %f", price)
	}

	quote := &models.Quote{
		Symbol:    asset.Symbol,
		Price:     price,
		Source:    c.Name(),
		FetchedAt: time.Now().UTC(),
	}
	if v, ok := entry["usd_24h_vol"]; ok && v > 0 {
		quote.Volume24h = &v
	}
	if ch, ok := entry["usd_24h_change"]; ok {
		quote.Change24h = &ch
	}
	if at, ok := entry["last_updated_at"]; ok && at > 0 {
		quote.FetchedAt = time.Unix(int64(at), 0).UTC()
	}
	return quote, nil
}

func (c *CoinGeckoClient) History(ctx context.Context, asset models.Asset, rng models.TimeRange) (*models.Series, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", coingeckoDays(rng))
	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(asset.CoinGeckoID), q.Encode())

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	// Both arrays are [ms-epoch, value] pairs; volumes line up with prices
	// index-for-index when present.
	var data struct {
		Prices       [][2]float64 `json:"prices"`
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	candles := make([]models.Candle, 0, len(data.Prices))
	for i, p := range data.Prices {
		price := p[1]
		if price <= 0 {
			continue
		}
		candle := models.Candle{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Close:     price,
		}
		if i < len(data.TotalVolumes) {
			candle.Volume = data.TotalVolumes[i][1]
		}
		candles = append(candles, candle)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("coingecko returned no usable prices for %s (%s)", asset.CoinGeckoID, rng)
	}
	sortCandles(candles)

	return &models.Series{
		Symbol:  asset.Symbol,
		Range:   rng,
		Candles: candles,
		Source:  c.Name(),
	}, nil
}

func coingeckoDays(rng models.TimeRange) string {
	switch rng {
	case models.Range24h:
		return "1"
	case models.Range1w:
		return "7"
	case models.Range1m:
		return "30"
	case models.Range6m:
		return "180"
	case models.Range1y:
		return "365"
	case models.Range3y:
		return "1095"
	}
	return "max"
}
