package server

import (
	"net/http"

	"printvault/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.info.StoreInfo(r.Context())
	if err != nil {
		s.writeError(w, r, err, ErrCodeNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		DBPath:              s.dbPath,
		SchemaVersion:       info.SchemaVersion,
		Collections:         info.Collections,
		QueuedEntities:      info.QueuedEntities,
		TotalBlobBytes:      info.TotalBlobBytes,
		UnlinkedCollections: info.UnlinkedCollections,
	})
}

func (s *Server) handleGlobalKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.catalog.GlobalKeys(r.Context())
	if err != nil {
		s.writeError(w, r, err, ErrCodeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, api.KeysResponse{Keys: keys})
}
