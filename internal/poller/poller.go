package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coindash/coindash/internal/models"
)

// Market is the subset of the market service the poller needs.
type Market interface {
	Assets() []models.Asset
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Recorder persists polled quotes.
type Recorder interface {
	Record(ctx context.Context, symbol string, price float64, source string, ts time.Time) (*models.QuoteRecord, error)
}

// Publisher pushes polled quotes to live subscribers.
type Publisher interface {
	Publish(q models.Quote)
}

// Notifier reports sustained outages.
type Notifier interface {
	Send(msg string)
	Enabled() bool
}

type Config struct {
	Interval        time.Duration // e.g. 30*time.Second
	CycleTimeout    time.Duration
	OutageThreshold int // consecutive all-asset failures before alerting
}

// Poller fetches a fresh quote for every asset on a fixed interval,
// persists the result and publishes it to the stream hub. The persisted
// rows are what the market service falls back to when every provider dies.
type Poller struct {
	market Market
	repo   Recorder  // optional
	hub    Publisher // optional
	notify Notifier  // optional
	cfg    Config

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	failures int
	alerted  bool
}

func New(market Market, repo Recorder, hub Publisher, notify Notifier, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 45 * time.Second
	}
	if cfg.OutageThreshold <= 0 {
		cfg.OutageThreshold = 3
	}
	return &Poller{
		market: market,
		repo:   repo,
		hub:    hub,
		notify: notify,
		cfg:    cfg,
	}
}

func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		fmt.Println("[POLLER] Already running")
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	// Initial poll on startup (fire-and-forget)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CycleTimeout)
		defer cancel()
		p.PollNow(ctx)
	}()

	go func() {
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CycleTimeout)
				p.PollNow(ctx)
				cancel()
			}
		}
	}()

	fmt.Printf("[POLLER] Started (every %s)\n", p.cfg.Interval)
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	fmt.Println("[POLLER] Stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// PollNow runs a single poll cycle outside the normal schedule.
func (p *Poller) PollNow(ctx context.Context) {
	assets := p.market.Assets()
	fetched := 0

	for _, asset := range assets {
		q, err := p.market.Quote(ctx, asset.Symbol)
		if err != nil {
			fmt.Printf("[POLLER] %s: %v\n", asset.Symbol, err)
			continue
		}
		if q.Stale {
			// Stale quotes came from our own table; re-recording them
			// would launder old data into fresh rows.
			continue
		}
		fetched++

		if p.repo != nil {
			if _, err := p.repo.Record(ctx, q.Symbol, q.Price, q.Source, q.FetchedAt); err != nil {
				fmt.Printf("[POLLER] record %s: %v\n", q.Symbol, err)
			}
		}
		if p.hub != nil {
			p.hub.Publish(*q)
		}
	}

	p.trackOutage(fetched, len(assets))
}

func (p *Poller) trackOutage(fetched, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fetched > 0 {
		if p.alerted && p.notify != nil && p.notify.Enabled() {
			p.notify.Send(fmt.Sprintf("Quote polling recovered: %d/%d assets fetched", fetched, total))
		}
		p.failures = 0
		p.alerted = false
		return
	}

	p.failures++
	fmt.Printf("[POLLER] Full cycle failure %d/%d\n", p.failures, p.cfg.OutageThreshold)

	if p.failures >= p.cfg.OutageThreshold && !p.alerted {
		p.alerted = true
		if p.notify != nil && p.notify.Enabled() {
			p.notify.Send(fmt.Sprintf("All quote providers failing for %d consecutive cycles", p.failures))
		}
	}
}
