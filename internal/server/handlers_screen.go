package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// handleScreen handles POST /api/screen.
// Runs a full screening pass in-request; the body is an optional
// ScreenOptions override. A pass already in flight yields 409.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var opts models.ScreenOptions
	if !DecodeJSONOptional(w, r, &opts) {
		return
	}

	run, err := s.app.Pipeline.Run(r.Context(), opts)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunInProgress) {
			WriteError(w, http.StatusConflict, "A screening run is already in progress")
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Screen error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// handleScreenLatest handles GET /api/screen/latest.
func (s *Server) handleScreenLatest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	run := s.app.Pipeline.Latest()
	if run == nil {
		WriteError(w, http.StatusNotFound, "No screening run completed yet")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// handleAnalyze handles POST /api/analyze/{ticker}.
// The body is an optional AnalyzeOptions override; the path ticker wins
// over any symbol in the body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ticker := PathParam(r, "/api/analyze/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	var opts models.AnalyzeOptions
	if !DecodeJSONOptional(w, r, &opts) {
		return
	}
	opts.Symbol = ticker

	analysis, err := s.app.Analysis.Analyze(r.Context(), opts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}
