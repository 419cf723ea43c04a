package market

import (
	"context"
	"fmt"

	"github.com/coindash/coindash/internal/models"
)

// QuoteProvider returns the current price of an asset from one data source.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, asset models.Asset) (*models.Quote, error)
}

// HistoryProvider returns a historical candle series from one data source.
type HistoryProvider interface {
	Name() string
	History(ctx context.Context, asset models.Asset, rng models.TimeRange) (*models.Series, error)
}

// Cache is a short-TTL quote/series cache. Misses and cache errors look
// the same to the service: fetch from providers.
type Cache interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, bool)
	SetQuote(ctx context.Context, q *models.Quote)
	GetSeries(ctx context.Context, symbol string, rng models.TimeRange) (*models.Series, bool)
	SetSeries(ctx context.Context, s *models.Series)
}

// StaleStore serves the last persisted quote when every provider is down.
type StaleStore interface {
	GetLatest(ctx context.Context, symbol string) (*models.QuoteRecord, error)
}

// Service resolves quotes, history and metrics with deterministic fallback
// across the configured providers: each provider is tried in order, and the
// chain is exhausted before the request is declared unavailable.
type Service struct {
	quoteProviders   []QuoteProvider
	historyProviders []HistoryProvider
	cache            Cache
	store            StaleStore
}

type ServiceConfig struct {
	QuoteProviders   []QuoteProvider
	HistoryProviders []HistoryProvider
	Cache            Cache      // optional
	Store            StaleStore // optional
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		quoteProviders:   cfg.QuoteProviders,
		historyProviders: cfg.HistoryProviders,
		cache:            cfg.Cache,
		store:            cfg.Store,
	}
}

// Assets returns the supported assets.
func (s *Service) Assets() []models.Asset {
	return Assets()
}

// Quote returns the current price for a symbol. Provider order is the
// configured order; the first valid price wins. When the whole chain fails,
// the most recent persisted quote is returned with Stale set.
func (s *Service) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	asset, err := LookupAsset(symbol)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if q, ok := s.cache.GetQuote(ctx, asset.Symbol); ok {
			return q, nil
		}
	}

	for _, p := range s.quoteProviders {
		q, err := p.Quote(ctx, asset)
		if err != nil {
			fmt.Printf("[MARKET] %s quote via %s failed: %v\n", asset.Symbol, p.Name(), err)
			continue
		}
		if q == nil || q.Price <= 0 {
			fmt.Printf("[MARKET] %s quote via %s returned invalid price\n", asset.Symbol, p.Name())
			continue
		}
		q.Symbol = asset.Symbol
		if s.cache != nil {
			s.cache.SetQuote(ctx, q)
		}
		return q, nil
	}

	if stale := s.staleQuote(ctx, asset.Symbol); stale != nil {
		fmt.Printf("[MARKET] %s serving stale quote from %s\n", asset.Symbol, stale.FetchedAt.Format("2006-01-02 15:04:05"))
		return stale, nil
	}

	return nil, fmt.Errorf("%w: %s quote, all %d providers failed", ErrUnavailable, asset.Symbol, len(s.quoteProviders))
}

// AllQuotes resolves every supported asset, returning the quotes that
// succeeded and the symbols that did not.
func (s *Service) AllQuotes(ctx context.Context) ([]models.Quote, []string) {
	var quotes []models.Quote
	var unavailable []string
	for _, a := range Assets() {
		q, err := s.Quote(ctx, a.Symbol)
		if err != nil {
			unavailable = append(unavailable, a.Symbol)
			continue
		}
		quotes = append(quotes, *q)
	}
	return quotes, unavailable
}

// History returns the candle series for a symbol over one time range.
func (s *Service) History(ctx context.Context, symbol string, rng models.TimeRange) (*models.Series, error) {
	asset, err := LookupAsset(symbol)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if series, ok := s.cache.GetSeries(ctx, asset.Symbol, rng); ok {
			return series, nil
		}
	}

	for _, p := range s.historyProviders {
		series, err := p.History(ctx, asset, rng)
		if err != nil {
			fmt.Printf("[MARKET] %s history (%s) via %s failed: %v\n", asset.Symbol, rng, p.Name(), err)
			continue
		}
		if series == nil || len(series.Candles) == 0 {
			fmt.Printf("[MARKET] %s history (%s) via %s returned no candles\n", asset.Symbol, rng, p.Name())
			continue
		}
		series.Symbol = asset.Symbol
		series.Range = rng
		series.ChangePercent = ChangePercent(series.Candles)
		if s.cache != nil {
			s.cache.SetSeries(ctx, series)
		}
		return series, nil
	}

	return nil, fmt.Errorf("%w: %s history (%s), all %d providers failed", ErrUnavailable, asset.Symbol, rng, len(s.historyProviders))
}

// Metrics computes the dashboard summary figures: day range from the 24h
// window, 52-week range from the 1y window, 24h volume from the 24h window.
// Each block is independently nil when its window could not be fetched.
func (s *Service) Metrics(ctx context.Context, symbol string) (*models.AssetMetrics, error) {
	asset, err := LookupAsset(symbol)
	if err != nil {
		return nil, err
	}

	m := &models.AssetMetrics{Symbol: asset.Symbol}

	if day, err := s.History(ctx, asset.Symbol, models.Range24h); err == nil {
		m.DayRange = PriceBand(day.Candles)
		m.Volume24h = VolumeSum(day.Candles)
	}
	if year, err := s.History(ctx, asset.Symbol, models.Range1y); err == nil {
		m.YearRange = PriceBand(year.Candles)
	}

	return m, nil
}

func (s *Service) staleQuote(ctx context.Context, symbol string) *models.Quote {
	if s.store == nil {
		return nil
	}
	rec, err := s.store.GetLatest(ctx, symbol)
	if err != nil || rec == nil {
		return nil
	}
	return &models.Quote{
		Symbol:    rec.Symbol,
		Price:     rec.Price,
		Source:    rec.Source,
		Stale:     true,
		FetchedAt: rec.Timestamp,
	}
}
