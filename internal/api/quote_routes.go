package api

import (
	"net/http"

	"github.com/coindash/coindash/internal/market"
)

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, unavailable := s.market.AllQuotes(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"quotes":      quotes,
		"unavailable": unavailable,
		"count":       len(quotes),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	quote, err := s.market.Quote(r.Context(), symbol)
	if err != nil {
		writeMarketError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleQuotesByDay(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history not available")
		return
	}

	asset, err := market.LookupAsset(r.PathValue("symbol"))
	if err != nil {
		writeMarketError(w, err)
		return
	}

	date := r.PathValue("date")
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)")
		return
	}

	records, err := s.store.GetByDay(r.Context(), asset.Symbol, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch quote history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": asset.Symbol,
		"date":   date,
		"quotes": records,
		"count":  len(records),
	})
}

func (s *Server) handleAvailableDays(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history not available")
		return
	}

	asset, err := market.LookupAsset(r.PathValue("symbol"))
	if err != nil {
		writeMarketError(w, err)
		return
	}

	days, err := s.store.GetAvailableDays(r.Context(), asset.Symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch available days")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": asset.Symbol,
		"days":   days,
		"count":  len(days),
	})
}
