package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coindash/coindash/internal/api"
	"github.com/coindash/coindash/internal/cache"
	"github.com/coindash/coindash/internal/config"
	"github.com/coindash/coindash/internal/db"
	"github.com/coindash/coindash/internal/market"
	"github.com/coindash/coindash/internal/notifications"
	"github.com/coindash/coindash/internal/poller"
	"github.com/coindash/coindash/internal/provider"
	"github.com/coindash/coindash/internal/repository"
	"github.com/coindash/coindash/internal/stream"
)

const banner = `
╔══════════════════════════════════════╗
║        coindash API v0.3             ║
║   crypto price dashboard backend     ║
╚══════════════════════════════════════╝
`

const pruneInterval = 12 * time.Hour

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.TestConnection(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	}

	if err := db.EnsureSchema(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Schema setup failed: %v\n", err)
		os.Exit(1)
	}

	quoteRepo := repository.NewQuoteRepo(pool)

	// Redis cache (optional; the service degrades to provider calls)
	quoteCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		time.Duration(cfg.QuoteCacheTTLSeconds)*time.Second,
		time.Duration(cfg.SeriesCacheTTLSeconds)*time.Second)
	defer quoteCache.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := quoteCache.Ping(ctx); err != nil {
			fmt.Printf("[CACHE] Redis not reachable at %s: %v (running without cache)\n", cfg.RedisAddr, err)
		} else {
			fmt.Printf("[CACHE] Connected to Redis at %s\n", cfg.RedisAddr)
		}
		cancel()
	}

	// Providers, in the configured fallback order
	quoteProviders := buildQuoteProviders(cfg)
	historyProviders := buildHistoryProviders(cfg)
	if len(quoteProviders) == 0 {
		fmt.Fprintln(os.Stderr, "[MARKET] No usable quote providers configured")
		os.Exit(1)
	}

	svc := market.NewService(market.ServiceConfig{
		QuoteProviders:   quoteProviders,
		HistoryProviders: historyProviders,
		Cache:            quoteCache,
		Store:            quoteRepo,
	})

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)

	// Live stream hub + Binance upstream
	hub := stream.NewHub()
	var upstream *stream.BinanceStream
	if cfg.StreamEnabled {
		upstream = stream.NewBinanceStream(market.Assets(), hub, quoteCache, notify)
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	var up api.Upstream
	if upstream != nil {
		up = upstream
	}
	srv := api.NewServer(svc, quoteRepo, hub, pool, quoteCache, up, api.Options{
		Port:            cfg.APIPort,
		APIKey:          cfg.APIKey,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Quote poller (persists history + feeds the hub)
	poll := poller.New(svc, quoteRepo, hub, notify, poller.Config{
		Interval:        time.Duration(cfg.PollIntervalSeconds) * time.Second,
		OutageThreshold: cfg.OutageThreshold,
	})
	poll.Start()

	// 3. Binance live stream
	if upstream != nil {
		go upstream.Run(ctx)
	} else {
		fmt.Println("[STREAM] Disabled by configuration")
	}

	// 4. Retention pruning
	go pruneLoop(ctx, quoteRepo, cfg.RetentionDays)

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	poll.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}

func buildQuoteProviders(cfg *config.Config) []market.QuoteProvider {
	var out []market.QuoteProvider
	for _, name := range cfg.QuoteProviders {
		switch name {
		case "alphavantage":
			if cfg.AlphaVantageAPIKey == "" {
				fmt.Println("[MARKET] Skipping alphavantage (no API key)")
				continue
			}
			out = append(out, provider.NewAlphaVantageClient(cfg.AlphaVantageAPIKey))
		case "yahoo":
			out = append(out, provider.NewYahooClient())
		case "coingecko":
			out = append(out, provider.NewCoinGeckoClient())
		case "chainlink":
			if cfg.EthRPCEndpoint == "" {
				fmt.Println("[MARKET] Skipping chainlink (no RPC endpoint)")
				continue
			}
			c, err := provider.NewChainlinkClient(cfg.EthRPCEndpoint)
			if err != nil {
				fmt.Printf("[MARKET] Skipping chainlink: %v\n", err)
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func buildHistoryProviders(cfg *config.Config) []market.HistoryProvider {
	var out []market.HistoryProvider
	for _, name := range cfg.HistoryProviders {
		switch name {
		case "yahoo":
			out = append(out, provider.NewYahooClient())
		case "coingecko":
			out = append(out, provider.NewCoinGeckoClient())
		default:
			fmt.Printf("[MARKET] Provider %s has no history support, skipping\n", name)
		}
	}
	return out
}

func pruneLoop(ctx context.Context, repo *repository.QuoteRepo, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Prune(ctx, retention)
			if err != nil {
				fmt.Printf("[DB] Prune failed: %v\n", err)
				continue
			}
			if n > 0 {
				fmt.Printf("[DB] Pruned %d quote rows older than %d days\n", n, retentionDays)
			}
		}
	}
}
