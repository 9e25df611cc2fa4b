package server

import (
	"net/http"
	"strings"
)

const defaultSessionListLimit = 50

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSessionListLimit)
	if err != nil {
		s.writeError(w, r, err, ErrCodeSessionNotFound)
		return
	}

	sessions, err := s.catalog.ListSessions(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, ErrCodeSessionNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	view, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, ErrCodeSessionNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}
