package api

import "net/http"

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.market.Assets()
	writeJSON(w, http.StatusOK, map[string]any{
		"assets": assets,
		"count":  len(assets),
	})
}
