package api

import (
	"net/http"

	"github.com/coindash/coindash/internal/models"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	rng := models.Range24h
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, err := models.ParseRange(raw)
		if err != nil {
			writeMarketError(w, err)
			return
		}
		rng = parsed
	}

	series, err := s.market.History(r.Context(), symbol, rng)
	if err != nil {
		writeMarketError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	metrics, err := s.market.Metrics(r.Context(), symbol)
	if err != nil {
		writeMarketError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
