package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coindash/coindash/internal/models"
)

// Cache is a short-TTL Redis cache for quotes and candle series. Every
// failure mode degrades to a miss: callers fall through to the providers
// and the dashboard keeps working without Redis.
type Cache struct {
	client    *redis.Client
	prefix    string
	quoteTTL  time.Duration
	seriesTTL time.Duration
}

func New(addr, password string, db int, quoteTTL, seriesTTL time.Duration) *Cache {
	if quoteTTL <= 0 {
		quoteTTL = 15 * time.Second
	}
	if seriesTTL <= 0 {
		seriesTTL = 60 * time.Second
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix:    "coindash:",
		quoteTTL:  quoteTTL,
		seriesTTL: seriesTTL,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) GetQuote(ctx context.Context, symbol string) (*models.Quote, bool) {
	var q models.Quote
	if !c.get(ctx, "quote:"+symbol, &q) {
		return nil, false
	}
	return &q, true
}

func (c *Cache) SetQuote(ctx context.Context, q *models.Quote) {
	c.set(ctx, "quote:"+q.Symbol, q, c.quoteTTL)
}

func (c *Cache) GetSeries(ctx context.Context, symbol string, rng models.TimeRange) (*models.Series, bool) {
	var s models.Series
	if !c.get(ctx, seriesKey(symbol, rng), &s) {
		return nil, false
	}
	return &s, true
}

func (c *Cache) SetSeries(ctx context.Context, s *models.Series) {
	ttl := c.seriesTTL
	// Daily-candle windows barely move between refreshes.
	if s.Range.Interval() >= 24*time.Hour {
		ttl = 10 * c.seriesTTL
	}
	c.set(ctx, seriesKey(s.Symbol, s.Range), s, ttl)
}

func seriesKey(symbol string, rng models.TimeRange) string {
	return fmt.Sprintf("series:%s:%s", symbol, rng)
}

func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			fmt.Printf("[CACHE] get %s: %v\n", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		fmt.Printf("[CACHE] decode %s: %v\n", key, err)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		fmt.Printf("[CACHE] encode %s: %v\n", key, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		fmt.Printf("[CACHE] set %s: %v\n", key, err)
	}
}
