package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
)

func (s *Server) requireConnections(w http.ResponseWriter) bool {
	if s.connections == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "connection directory not configured")
		return false
	}
	return true
}

// handleListConnections returns every connection that has announced itself.
func (s *Server) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	if !s.requireConnections(w) {
		return
	}
	recs := s.connections.Records()
	writeJSON(w, http.StatusOK, map[string]any{"connections": recs, "count": len(recs)})
}

// handleDeleteConnection forgets a connection. Every action and feedback
// bound to it is dropped from the controls without notifying it.
func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if !s.requireConnections(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.connections.Remove(r.Context(), id); err != nil {
		if errors.Is(err, connection.ErrUnknownConnection) {
			writeNotFound(w, "connection not found")
			return
		}
		s.logger.Error("removing connection failed", "connection_id", id, "error", err)
		writeInternalError(w, "failed to remove connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
