package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var knownProviders = map[string]bool{
	"alphavantage": true,
	"yahoo":        true,
	"coingecko":    true,
	"chainlink":    true,
}

type Config struct {
	// API
	APIPort         int
	APIKey          string
	CORSAllowOrigin string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Providers
	AlphaVantageAPIKey string
	EthRPCEndpoint     string
	QuoteProviders     []string // fallback order
	HistoryProviders   []string // fallback order

	// Caching
	QuoteCacheTTLSeconds  int
	SeriesCacheTTLSeconds int

	// Polling
	PollIntervalSeconds int
	OutageThreshold     int
	RetentionDays       int

	// Live stream
	StreamEnabled bool

	// Notifications
	WebhookURL string
	BotName    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:         envInt("API_PORT", 8063),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "coindash"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		AlphaVantageAPIKey: envStr("ALPHAVANTAGE_API_KEY", ""),
		EthRPCEndpoint:     envStr("ETH_RPC_ENDPOINT", ""),
		QuoteProviders:     envList("QUOTE_PROVIDERS", []string{"alphavantage", "yahoo", "coingecko", "chainlink"}),
		HistoryProviders:   envList("HISTORY_PROVIDERS", []string{"yahoo", "coingecko"}),

		QuoteCacheTTLSeconds:  envInt("QUOTE_CACHE_TTL_SECONDS", 15),
		SeriesCacheTTLSeconds: envInt("SERIES_CACHE_TTL_SECONDS", 60),

		PollIntervalSeconds: envInt("POLL_INTERVAL_SECONDS", 30),
		OutageThreshold:     envInt("OUTAGE_THRESHOLD", 3),
		RetentionDays:       envInt("RETENTION_DAYS", 90),

		StreamEnabled: envBool("STREAM_ENABLED", true),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "coindash"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	for _, p := range append(append([]string{}, c.QuoteProviders...), c.HistoryProviders...) {
		if !knownProviders[p] {
			errs = append(errs, fmt.Sprintf("unknown provider %q in provider list", p))
		}
	}
	if len(c.QuoteProviders) == 0 {
		errs = append(errs, "QUOTE_PROVIDERS must name at least one provider")
	}
	if len(c.HistoryProviders) == 0 {
		errs = append(errs, "HISTORY_PROVIDERS must name at least one provider")
	}
	if c.PollIntervalSeconds < 5 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be at least 5")
	}

	if c.AlphaVantageAPIKey == "" && hasProvider(c.QuoteProviders, "alphavantage") {
		fmt.Println("[WARN] ALPHAVANTAGE_API_KEY not set — alphavantage will be skipped in the fallback chain")
	}
	if c.EthRPCEndpoint == "" && hasProvider(c.QuoteProviders, "chainlink") {
		fmt.Println("[WARN] ETH_RPC_ENDPOINT not set — chainlink will be skipped in the fallback chain")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== coindash Configuration ===")
	fmt.Printf("API port: %d\n", c.APIPort)
	fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	fmt.Printf("Redis: %s (db %d)\n", c.RedisAddr, c.RedisDB)
	fmt.Println("--------------------------------------")
	fmt.Printf("Quote providers: %s\n", strings.Join(c.QuoteProviders, " -> "))
	fmt.Printf("History providers: %s\n", strings.Join(c.HistoryProviders, " -> "))
	fmt.Printf("Alpha Vantage: %s\n", boolLabel(c.AlphaVantageAPIKey != "", "configured", "not set"))
	fmt.Printf("Chainlink RPC: %s\n", boolLabel(c.EthRPCEndpoint != "", "configured", "not set"))
	fmt.Println("--------------------------------------")
	fmt.Printf("Poll interval: %ds\n", c.PollIntervalSeconds)
	fmt.Printf("Quote cache TTL: %ds, series cache TTL: %ds\n", c.QuoteCacheTTLSeconds, c.SeriesCacheTTLSeconds)
	fmt.Printf("Retention: %d days\n", c.RetentionDays)
	fmt.Printf("Live stream: %v\n", c.StreamEnabled)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("==============================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func hasProvider(list []string, name string) bool {
	for _, p := range list {
		if p == name {
			return true
		}
	}
	return false
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(strings.ToLower(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
