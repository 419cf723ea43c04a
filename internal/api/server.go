package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coindash/coindash/internal/market"
	"github.com/coindash/coindash/internal/models"
	"github.com/coindash/coindash/internal/stream"
)

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Market is the market service surface the API depends on.
type Market interface {
	Assets() []models.Asset
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	AllQuotes(ctx context.Context) ([]models.Quote, []string)
	History(ctx context.Context, symbol string, rng models.TimeRange) (*models.Series, error)
	Metrics(ctx context.Context, symbol string) (*models.AssetMetrics, error)
}

// QuoteStore serves the recorded poll history.
type QuoteStore interface {
	GetByDay(ctx context.Context, symbol, day string) ([]models.QuoteRecord, error)
	GetAvailableDays(ctx context.Context, symbol string) ([]string, error)
}

// Pinger is implemented by the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Upstream reports live-stream connectivity for the health check.
type Upstream interface {
	Connected() bool
}

type Server struct {
	market     Market
	store      QuoteStore
	hub        *stream.Hub
	pool       *pgxpool.Pool
	cache      Pinger
	upstream   Upstream
	httpServer *http.Server
	apiKey     string
}

type Options struct {
	Port            int
	APIKey          string
	CORSAllowOrigin string
}

func NewServer(m Market, store QuoteStore, hub *stream.Hub, pool *pgxpool.Pool, cache Pinger, upstream Upstream, opts Options) *Server {
	s := &Server{
		market:   m,
		store:    store,
		hub:      hub,
		pool:     pool,
		cache:    cache,
		upstream: upstream,
		apiKey:   opts.APIKey,
	}

	mux := http.NewServeMux()

	// Asset + quote routes
	mux.HandleFunc("GET /v1/assets", s.handleAssets)
	mux.HandleFunc("GET /v1/quotes", s.handleQuotes)
	mux.HandleFunc("GET /v1/quotes/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /v1/quotes/{symbol}/day/{date}", s.handleQuotesByDay)
	mux.HandleFunc("GET /v1/quotes/{symbol}/days", s.handleAvailableDays)

	// Chart routes
	mux.HandleFunc("GET /v1/history/{symbol}", s.handleHistory)
	mux.HandleFunc("GET /v1/metrics/{symbol}", s.handleMetrics)

	// Live updates
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := requestIDMiddleware(s.authMiddleware(corsMiddleware(mux, opts.CORSAllowOrigin)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		// Browser websocket clients cannot set headers, so the stream
		// route also accepts the key as a query parameter.
		if r.URL.Path == "/v1/stream" && r.URL.Query().Get("token") == s.apiKey {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMarketError maps market errors onto HTTP statuses.
func writeMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrUnknownAsset):
		writeError(w, http.StatusNotFound, "unknown symbol")
	case errors.Is(err, models.ErrUnknownRange):
		writeError(w, http.StatusBadRequest, "invalid range (valid: 24h, 1w, 1m, 6m, 1y, 3y, max)")
	case errors.Is(err, market.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
	default:
		fmt.Printf("[API] Internal error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
