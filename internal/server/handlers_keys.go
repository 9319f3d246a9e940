package server

import (
	"net/http"
)

// handleKeyStatus handles GET /api/keys/status.
// Returns per-slot counters; key material is never included.
func (s *Server) handleKeyStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.KeyPool.Snapshot())
}

// handleKeyReset handles POST /api/keys/reset.
// Clears request and error counters and unblocks every slot.
func (s *Server) handleKeyReset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	s.app.KeyPool.ResetAll()
	WriteJSON(w, http.StatusOK, s.app.KeyPool.Snapshot())
}

// handleKeyRotate handles POST /api/keys/rotate.
// Advances the pool cursor to the next slot.
func (s *Server) handleKeyRotate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	s.app.KeyPool.ForceRotate()
	WriteJSON(w, http.StatusOK, s.app.KeyPool.Snapshot())
}
