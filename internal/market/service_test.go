package market_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coindash/coindash/internal/market"
	"github.com/coindash/coindash/internal/models"
)

type fakeQuoteProvider struct {
	name  string
	price float64
	err   error
	calls int
}

func (f *fakeQuoteProvider) Name() string { return f.name }

func (f *fakeQuoteProvider) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Quote{Price: f.price, Source: f.name, FetchedAt: time.Now()}, nil
}

type fakeHistoryProvider struct {
	name    string
	candles []models.Candle
	err     error
	calls   int
}

func (f *fakeHistoryProvider) Name() string { return f.name }

func (f *fakeHistoryProvider) History(ctx context.Context, asset models.Asset, rng models.TimeRange) (*models.Series, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Series{Candles: f.candles, Source: f.name}, nil
}

type fakeStore struct {
	rec *models.QuoteRecord
}

func (f *fakeStore) GetLatest(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	if f.rec == nil {
		return nil, nil
	}
	return f.rec, nil
}

func TestQuote_FirstProviderWins(t *testing.T) {
	a := &fakeQuoteProvider{name: "a", price: 50000}
	b := &fakeQuoteProvider{name: "b", price: 49000}
	svc := market.NewService(market.ServiceConfig{QuoteProviders: []market.QuoteProvider{a, b}})

	q, err := svc.Quote(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Source != "a" || q.Price != 50000 {
		t.Fatalf("expected quote from provider a, got %+v", q)
	}
	if q.Symbol != "BTC-USD" {
		t.Fatalf("expected normalized symbol BTC-USD, got %q", q.Symbol)
	}
	if b.calls != 0 {
		t.Fatal("provider b should not be called when a succeeds")
	}
}

func TestQuote_FallsBackInOrder(t *testing.T) {
	a := &fakeQuoteProvider{name: "a", err: errors.New("down")}
	b := &fakeQuoteProvider{name: "b", price: 0} // invalid price, also skipped
	c := &fakeQuoteProvider{name: "c", price: 3100.5}
	svc := market.NewService(market.ServiceConfig{QuoteProviders: []market.QuoteProvider{a, b, c}})

	q, err := svc.Quote(context.Background(), "eth-usd")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Source != "c" {
		t.Fatalf("expected fallback to provider c, got %q", q.Source)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("expected every provider tried once, got %d/%d/%d", a.calls, b.calls, c.calls)
	}
}

func TestQuote_ExhaustionWithoutStore(t *testing.T) {
	a := &fakeQuoteProvider{name: "a", err: errors.New("down")}
	b := &fakeQuoteProvider{name: "b", err: errors.New("down too")}
	svc := market.NewService(market.ServiceConfig{QuoteProviders: []market.QuoteProvider{a, b}})

	_, err := svc.Quote(context.Background(), "SOL")
	if !errors.Is(err, market.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatal("expected all providers exhausted before failing")
	}
}

func TestQuote_StaleFallback(t *testing.T) {
	a := &fakeQuoteProvider{name: "a", err: errors.New("down")}
	ts := time.Now().Add(-10 * time.Minute)
	store := &fakeStore{rec: &models.QuoteRecord{
		Symbol: "SOL-USD", Price: 142.7, Source: "coingecko", Timestamp: ts,
	}}
	svc := market.NewService(market.ServiceConfig{
		QuoteProviders: []market.QuoteProvider{a},
		Store:          store,
	})

	q, err := svc.Quote(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.Stale {
		t.Fatal("expected stale quote")
	}
	if q.Price != 142.7 || !q.FetchedAt.Equal(ts) {
		t.Fatalf("stale quote mismatch: %+v", q)
	}
}

func TestQuote_UnknownAsset(t *testing.T) {
	svc := market.NewService(market.ServiceConfig{})
	_, err := svc.Quote(context.Background(), "SHIB")
	if !errors.Is(err, market.ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestHistory_ComputesChangePercent(t *testing.T) {
	now := time.Now()
	p := &fakeHistoryProvider{name: "h", candles: []models.Candle{
		{Timestamp: now.Add(-2 * time.Hour), Close: 100},
		{Timestamp: now.Add(-1 * time.Hour), Close: 105},
		{Timestamp: now, Close: 110},
	}}
	svc := market.NewService(market.ServiceConfig{HistoryProviders: []market.HistoryProvider{p}})

	series, err := svc.History(context.Background(), "BTC", models.Range24h)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if series.Symbol != "BTC-USD" || series.Range != models.Range24h {
		t.Fatalf("series not normalized: %+v", series)
	}
	if series.ChangePercent < 9.99 || series.ChangePercent > 10.01 {
		t.Fatalf("expected ~10%% change, got %.4f", series.ChangePercent)
	}
}

func TestHistory_SkipsEmptySeries(t *testing.T) {
	empty := &fakeHistoryProvider{name: "empty"}
	full := &fakeHistoryProvider{name: "full", candles: []models.Candle{{Close: 1}}}
	svc := market.NewService(market.ServiceConfig{HistoryProviders: []market.HistoryProvider{empty, full}})

	series, err := svc.History(context.Background(), "ADA", models.Range1w)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if series.Source != "full" {
		t.Fatalf("expected empty series skipped, got source %q", series.Source)
	}
}

func TestHistory_Exhaustion(t *testing.T) {
	p := &fakeHistoryProvider{name: "h", err: errors.New("down")}
	svc := market.NewService(market.ServiceConfig{HistoryProviders: []market.HistoryProvider{p}})

	_, err := svc.History(context.Background(), "DOT", models.Range1y)
	if !errors.Is(err, market.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMetrics_PartialAvailability(t *testing.T) {
	vol := 1000.0
	day := &fakeHistoryProvider{name: "day", candles: []models.Candle{
		{High: 51000, Low: 49000, Close: 50000, Volume: vol},
	}}
	svc := market.NewService(market.ServiceConfig{HistoryProviders: []market.HistoryProvider{day}})

	// Range1y goes through the same provider here, so both blocks resolve.
	m, err := svc.Metrics(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.DayRange == nil || m.DayRange.Low != 49000 || m.DayRange.High != 51000 {
		t.Fatalf("day range mismatch: %+v", m.DayRange)
	}
	if m.Volume24h == nil || *m.Volume24h != vol {
		t.Fatalf("volume mismatch: %+v", m.Volume24h)
	}
}

func TestMetrics_AllUnavailable(t *testing.T) {
	down := &fakeHistoryProvider{name: "down", err: errors.New("boom")}
	svc := market.NewService(market.ServiceConfig{HistoryProviders: []market.HistoryProvider{down}})

	m, err := svc.Metrics(context.Background(), "XRP")
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.DayRange != nil || m.YearRange != nil || m.Volume24h != nil {
		t.Fatalf("expected all-nil metrics, got %+v", m)
	}
}

func TestAllQuotes_PartialFailure(t *testing.T) {
	// Provider that only knows Bitcoin.
	btcOnly := &selectiveProvider{}
	svc := market.NewService(market.ServiceConfig{QuoteProviders: []market.QuoteProvider{btcOnly}})

	quotes, unavailable := svc.AllQuotes(context.Background())
	if len(quotes) != 1 || quotes[0].Symbol != "BTC-USD" {
		t.Fatalf("expected exactly the BTC quote, got %+v", quotes)
	}
	if len(unavailable) != len(market.Assets())-1 {
		t.Fatalf("expected %d unavailable symbols, got %d", len(market.Assets())-1, len(unavailable))
	}
}

type selectiveProvider struct{}

func (s *selectiveProvider) Name() string { return "selective" }

func (s *selectiveProvider) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	if asset.Base != "BTC" {
		return nil, errors.New("unsupported")
	}
	return &models.Quote{Price: 50000, Source: "selective", FetchedAt: time.Now()}, nil
}
