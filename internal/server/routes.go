package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Sessions.
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)

	// Blobs.
	mux.HandleFunc("GET /v1/blobs/archive", s.handleBlobArchive)
	mux.HandleFunc("GET /v1/blobs/{id}", s.handleGetBlob)

	// Dictionaries.
	mux.HandleFunc("GET /v1/dictionaries/global/keys", s.handleGlobalKeys)

	return mux
}
