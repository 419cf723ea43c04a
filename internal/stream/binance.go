package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coindash/coindash/internal/models"
)

const binanceStreamURL = "wss://stream.binance.com:9443/stream"

const (
	reconnectBaseDelay  = 2 * time.Second
	reconnectMaxDelay   = time.Minute
	disconnectThreshold = 3 // consecutive failures before alerting
)

// QuoteSink receives live quotes as they arrive; the market cache
// implements it so streamed prices also serve HTTP requests.
type QuoteSink interface {
	SetQuote(ctx context.Context, q *models.Quote)
}

// Notifier reports sustained stream outages.
type Notifier interface {
	Send(msg string)
	Enabled() bool
}

type binanceMiniTicker struct {
	EventType   string `json:"e"`
	EventTime   int64  `json:"E"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	QuoteVolume string `json:"q"`
}

// BinanceStream maintains a combined miniTicker websocket subscription for
// all assets, normalizes ticks into quotes and feeds the hub and the cache.
type BinanceStream struct {
	wsURL     string
	assets    []models.Asset
	hub       *Hub
	sink      QuoteSink // optional
	notify    Notifier  // optional
	baseDelay time.Duration
	maxDelay  time.Duration
	threshold int
	connected atomic.Bool

	// Touched only from the Run goroutine.
	failures int
	alerted  bool
}

func NewBinanceStream(assets []models.Asset, hub *Hub, sink QuoteSink, notify Notifier) *BinanceStream {
	return &BinanceStream{
		wsURL:     binanceStreamURL,
		assets:    assets,
		hub:       hub,
		sink:      sink,
		notify:    notify,
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
		threshold: disconnectThreshold,
	}
}

// Connected reports whether the upstream websocket is currently up.
func (b *BinanceStream) Connected() bool {
	return b.connected.Load()
}

// Run connects and reads until ctx is cancelled, reconnecting after
// upstream failures.
func (b *BinanceStream) Run(ctx context.Context) {
	streams := make([]string, len(b.assets))
	for i, a := range b.assets {
		streams[i] = strings.ToLower(a.BinanceSymbol) + "@miniTicker"
	}
	wsURL := fmt.Sprintf("%s?streams=%s", b.wsURL, strings.Join(streams, "/"))

	delay := b.baseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			fmt.Printf("[STREAM] Binance connection error: %v\n", err)
			b.trackDisconnect()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = nextDelay(delay, b.maxDelay)
			continue
		}

		fmt.Printf("[STREAM] Connected to Binance (%d tickers)\n", len(b.assets))
		b.trackReconnect()
		delay = b.baseDelay
		b.connected.Store(true)
		b.readLoop(ctx, conn)
		b.connected.Store(false)
		conn.Close()
		if ctx.Err() == nil {
			b.trackDisconnect()
		}
	}
}

func (b *BinanceStream) trackDisconnect() {
	b.failures++
	if b.failures >= b.threshold && !b.alerted {
		b.alerted = true
		if b.notify != nil && b.notify.Enabled() {
			b.notify.Send(fmt.Sprintf("Binance stream down: %d consecutive connection failures", b.failures))
		}
	}
}

func (b *BinanceStream) trackReconnect() {
	if b.alerted && b.notify != nil && b.notify.Enabled() {
		b.notify.Send("Binance stream reconnected")
	}
	b.failures = 0
	b.alerted = false
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

func (b *BinanceStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var message struct {
			Stream string            `json:"stream"`
			Data   binanceMiniTicker `json:"data"`
		}
		if err := conn.ReadJSON(&message); err != nil {
			if ctx.Err() == nil {
				fmt.Printf("[STREAM] Binance read error: %v\n", err)
			}
			return
		}

		quote, ok := b.normalize(message.Data)
		if !ok {
			continue
		}
		b.hub.Publish(quote)
		if b.sink != nil {
			b.sink.SetQuote(ctx, &quote)
		}
	}
}

func (b *BinanceStream) normalize(tick binanceMiniTicker) (models.Quote, bool) {
	var asset *models.Asset
	for i := range b.assets {
		if b.assets[i].BinanceSymbol == tick.Symbol {
			asset = &b.assets[i]
			break
		}
	}
	if asset == nil {
		return models.Quote{}, false
	}

	price, err := strconv.ParseFloat(tick.Close, 64)
	if err != nil || price <= 0 {
		return models.Quote{}, false
	}

	q := models.Quote{
		Symbol:    asset.Symbol,
		Price:     price,
		Source:    "binance",
		FetchedAt: time.UnixMilli(tick.EventTime).UTC(),
	}
	if open, err := strconv.ParseFloat(tick.Open, 64); err == nil && open > 0 {
		change := (price - open) / open * 100
		q.Change24h = &change
	}
	if vol, err := strconv.ParseFloat(tick.QuoteVolume, 64); err == nil && vol > 0 {
		q.Volume24h = &vol
	}
	return q, true
}
