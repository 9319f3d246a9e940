package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/calebmills/argus/internal/models"
)

// handleHistory handles GET /api/history.
// Query parameters: type, symbol, market, since (YYYY-MM-DD), limit.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter := models.HistoryFilter{
		Type:   r.URL.Query().Get("type"),
		Symbol: r.URL.Query().Get("symbol"),
		Market: r.URL.Query().Get("market"),
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid since date '%s' - use YYYY-MM-DD", sinceStr))
			return
		}
		filter.Since = since
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit '%s'", limitStr))
			return
		}
		filter.Limit = limit
	}

	records, err := s.app.Storage.History().List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("History error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
