package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// holdingRequest is the POST /api/portfolio payload.
type holdingRequest struct {
	Symbol  string  `json:"symbol" validate:"required"`
	Shares  float64 `json:"shares" validate:"gte=0"`
	AvgCost float64 `json:"avg_cost" validate:"gte=0"`
	Notes   string  `json:"notes"`
}

// Validate validates the payload using go-playground/validator.
func (p *holdingRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// patchRequest is the PATCH /api/portfolio/{symbol} payload.
// Absent fields keep their current values.
type patchRequest struct {
	Shares  *float64 `json:"shares" validate:"omitempty,gte=0"`
	AvgCost *float64 `json:"avg_cost" validate:"omitempty,gte=0"`
	Notes   *string  `json:"notes"`
}

// Validate validates the payload using go-playground/validator.
func (p *patchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// handlePortfolio handles GET /api/portfolio and POST /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handlePortfolioList(w, r)
	case http.MethodPost:
		s.handlePortfolioAdd(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")

	holdings, err := s.app.Portfolio.ListHoldings(r.Context(), market)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing holdings: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

func (s *Server) handlePortfolioAdd(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid holding: %v", err))
		return
	}

	holding, err := s.app.Portfolio.AddHolding(r.Context(), req.Symbol, req.Shares, req.AvgCost, req.Notes)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Add holding error: %v", err))
		return
	}

	WriteJSON(w, http.StatusCreated, holding)
}

// routePortfolio dispatches /api/portfolio/{symbol} to the appropriate handler.
func (s *Server) routePortfolio(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r, "/api/portfolio/", "")
	if symbol == "" {
		s.handlePortfolio(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handlePortfolioGet(w, r, symbol)
	case http.MethodPatch:
		s.handlePortfolioPatch(w, r, symbol)
	case http.MethodDelete:
		s.handlePortfolioDelete(w, r, symbol)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request, symbol string) {
	market := r.URL.Query().Get("market")

	holding, err := s.app.Portfolio.GetHolding(r.Context(), symbol, market)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %s", symbol))
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting holding: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, holding)
}

func (s *Server) handlePortfolioPatch(w http.ResponseWriter, r *http.Request, symbol string) {
	market := r.URL.Query().Get("market")

	var req patchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid patch: %v", err))
		return
	}

	patch := models.HoldingPatch{
		Shares:  req.Shares,
		AvgCost: req.AvgCost,
		Notes:   req.Notes,
	}

	holding, err := s.app.Portfolio.UpdateHolding(r.Context(), symbol, market, patch)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %s", symbol))
			return
		}
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Update holding error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, holding)
}

func (s *Server) handlePortfolioDelete(w http.ResponseWriter, r *http.Request, symbol string) {
	market := r.URL.Query().Get("market")

	removed, err := s.app.Portfolio.RemoveHolding(r.Context(), symbol, market)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Remove holding error: %v", err))
		return
	}
	if removed == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %s", symbol))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"removed": removed,
	})
}

// handlePortfolioSummary handles GET /api/portfolio/summary.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.app.Portfolio.Summary(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Summary error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}
