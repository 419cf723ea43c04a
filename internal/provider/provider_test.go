package provider

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coindash/coindash/internal/models"
)

var btc = models.Asset{
	Symbol:        "BTC-USD",
	Base:          "BTC",
	Name:          "Bitcoin",
	CoinGeckoID:   "bitcoin",
	BinanceSymbol: "BTCUSDT",
}

func TestAlphaVantageQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from_currency"); got != "BTC" {
			t.Errorf("from_currency = %q", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "demo" {
			t.Errorf("apikey = %q", got)
		}
		w.Write([]byte(`{"Realtime Currency Exchange Rate": {
			"5. Exchange Rate": "64123.50000000",
			"6. Last Refreshed": "2025-08-29 12:30:00"
		}}`))
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("demo")
	c.baseURL = srv.URL

	q, err := c.Quote(context.Background(), btc)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 64123.5 {
		t.Fatalf("price = %f", q.Price)
	}
	if q.Source != "alphavantage" {
		t.Fatalf("source = %q", q.Source)
	}
	want := time.Date(2025, 8, 29, 12, 30, 0, 0, time.UTC)
	if !q.FetchedAt.Equal(want) {
		t.Fatalf("fetchedAt = %s, want %s", q.FetchedAt, want)
	}
}

func TestAlphaVantageQuote_ThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("demo")
	c.baseURL = srv.URL

	if _, err := c.Quote(context.Background(), btc); err == nil {
		t.Fatal("expected error on throttle note")
	}
}

func TestYahooQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected explicit User-Agent")
		}
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"regularMarketPrice":64200.12,"regularMarketTime":1756468800},
			"timestamp":[],"indicators":{"quote":[{}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.baseURL = srv.URL

	q, err := c.Quote(context.Background(), btc)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 64200.12 {
		t.Fatalf("price = %f", q.Price)
	}
	if q.FetchedAt.Unix() != 1756468800 {
		t.Fatalf("fetchedAt = %s", q.FetchedAt)
	}
}

func TestYahooHistory_SkipsNullCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "5m" {
			t.Errorf("interval = %q, want 5m for 24h range", got)
		}
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"regularMarketPrice":100},
			"timestamp":[1756400000,1756400300,1756400600],
			"indicators":{"quote":[{
				"open":[99.0,null,101.0],
				"high":[100.5,null,102.0],
				"low":[98.5,null,100.0],
				"close":[100.0,null,101.5],
				"volume":[1200,null,900]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.baseURL = srv.URL

	series, err := c.History(context.Background(), btc, models.Range24h)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(series.Candles) != 2 {
		t.Fatalf("expected null gap dropped, got %d candles", len(series.Candles))
	}
	if series.Candles[0].Close != 100 || series.Candles[1].Close != 101.5 {
		t.Fatalf("candles = %+v", series.Candles)
	}
	if series.Candles[1].Volume != 900 {
		t.Fatalf("volume = %f", series.Candles[1].Volume)
	}
}

func TestYahooHistory_SortsOutOfOrderCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"regularMarketPrice":100},
			"timestamp":[1756400600,1756400000,1756400300],
			"indicators":{"quote":[{
				"open":[101.0,99.0,100.0],
				"high":[102.0,100.5,101.0],
				"low":[100.0,98.5,99.5],
				"close":[101.5,100.0,100.5],
				"volume":[900,1200,1100]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.baseURL = srv.URL

	series, err := c.History(context.Background(), btc, models.Range24h)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(series.Candles) != 3 {
		t.Fatalf("candles = %d", len(series.Candles))
	}
	for i := 1; i < len(series.Candles); i++ {
		if !series.Candles[i-1].Timestamp.Before(series.Candles[i].Timestamp) {
			t.Fatalf("candles not ascending at %d: %+v", i, series.Candles)
		}
	}
	// Close values must travel with their timestamps.
	if series.Candles[0].Close != 100.0 || series.Candles[2].Close != 101.5 {
		t.Fatalf("candle values detached from timestamps: %+v", series.Candles)
	}
}

func TestYahooHistory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := NewYahooClient()
	c.baseURL = srv.URL

	if _, err := c.History(context.Background(), btc, models.Range1y); err == nil {
		t.Fatal("expected error from chart.error payload")
	}
}

func TestCoinGeckoQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "bitcoin" {
			t.Errorf("ids = %q", got)
		}
		w.Write([]byte(`{"bitcoin":{"usd":64150.0,"usd_24h_vol":28000000000,"usd_24h_change":-1.25,"last_updated_at":1756468800}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient()
	c.baseURL = srv.URL

	q, err := c.Quote(context.Background(), btc)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 64150 {
		t.Fatalf("price = %f", q.Price)
	}
	if q.Volume24h == nil || *q.Volume24h != 28000000000 {
		t.Fatalf("volume24h = %v", q.Volume24h)
	}
	if q.Change24h == nil || *q.Change24h != -1.25 {
		t.Fatalf("change24h = %v", q.Change24h)
	}
}

func TestCoinGeckoHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("days"); got != "365" {
			t.Errorf("days = %q, want 365 for 1y", got)
		}
		w.Write([]byte(`{
			"prices":[[1756382400000,63000.0],[1756468800000,64150.0]],
			"total_volumes":[[1756382400000,25000000000],[1756468800000,28000000000]]
		}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient()
	c.baseURL = srv.URL

	series, err := c.History(context.Background(), btc, models.Range1y)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(series.Candles) != 2 {
		t.Fatalf("candles = %d", len(series.Candles))
	}
	if series.Candles[0].Close != 63000 || series.Candles[0].Volume != 25000000000 {
		t.Fatalf("first candle = %+v", series.Candles[0])
	}
	if !series.Candles[0].Timestamp.Before(series.Candles[1].Timestamp) {
		t.Fatal("candles not ascending")
	}
}

func TestCoinGeckoHistory_SortsOutOfOrderPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"prices":[[1756468800000,64150.0],[1756382400000,63000.0]],
			"total_volumes":[[1756468800000,28000000000],[1756382400000,25000000000]]
		}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient()
	c.baseURL = srv.URL

	series, err := c.History(context.Background(), btc, models.Range1w)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(series.Candles) != 2 {
		t.Fatalf("candles = %d", len(series.Candles))
	}
	if !series.Candles[0].Timestamp.Before(series.Candles[1].Timestamp) {
		t.Fatalf("candles not ascending: %+v", series.Candles)
	}
	if series.Candles[0].Close != 63000 || series.Candles[1].Close != 64150 {
		t.Fatalf("candle values detached from timestamps: %+v", series.Candles)
	}
}

func TestCoinGeckoDays(t *testing.T) {
	cases := map[models.TimeRange]string{
		models.Range24h: "1",
		models.Range1w:  "7",
		models.Range1m:  "30",
		models.Range6m:  "180",
		models.Range1y:  "365",
		models.Range3y:  "1095",
		models.RangeMax: "max",
	}
	for rng, want := range cases {
		if got := coingeckoDays(rng); got != want {
			t.Fatalf("coingeckoDays(%s) = %q, want %q", rng, got, want)
		}
	}
}

func TestScaleAnswer(t *testing.T) {
	// USD feeds answer with 8 decimals.
	answer := big.NewInt(6412350000000) // 64123.5
	if got := scaleAnswer(answer, 8); got != 64123.5 {
		t.Fatalf("scaleAnswer = %f", got)
	}
	if got := scaleAnswer(big.NewInt(125), 2); got != 1.25 {
		t.Fatalf("scaleAnswer = %f", got)
	}
}
