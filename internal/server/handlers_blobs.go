package server

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	file, err := s.blobs.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, ErrCodeBlobNotFound)
		return
	}

	w.Header().Set("Content-Type", file.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", attachmentDisposition(file.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.log().Warn("write blob response", "blob_id", id, "error", err)
	}
}

func (s *Server) handleBlobArchive(w http.ResponseWriter, r *http.Request) {
	ids := archiveIDs(r)
	if len(ids) == 0 {
		s.writeError(w, r, invalidArgument(ErrCodeMissingRequired, "at least one id is required"), ErrCodeBlobNotFound)
		return
	}
	if len(ids) > maxArchiveBlobCount {
		s.writeError(w, r, invalidArgument(ErrCodeInvalidQuery, "at most %d ids per archive", maxArchiveBlobCount), ErrCodeBlobNotFound)
		return
	}
	if !s.acquireLimiter(s.archiveLimiter, w, r, "archive") {
		return
	}
	defer s.releaseLimiter(s.archiveLimiter)

	out := &startedWriter{w: w, header: func() {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", attachmentDisposition("files.zip"))
		w.WriteHeader(http.StatusOK)
	}}
	if err := s.blobs.Archive(r.Context(), out, ids); err != nil {
		if out.started {
			// Headers are gone; the client sees a truncated zip.
			s.log().Error("archive aborted", "ids", len(ids), "error", err)
			return
		}
		s.writeError(w, r, err, ErrCodeBlobNotFound)
	}
}

// archiveIDs collects repeated id parameters, each optionally comma separated.
func archiveIDs(r *http.Request) []string {
	var ids []string
	for _, value := range r.URL.Query()["id"] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}

func attachmentDisposition(name string) string {
	if disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name}); disposition != "" {
		return disposition
	}
	return "attachment"
}

// startedWriter sends the response header on the first write.
type startedWriter struct {
	w       http.ResponseWriter
	header  func()
	started bool
}

func (s *startedWriter) Write(p []byte) (int, error) {
	if !s.started {
		s.started = true
		s.header()
	}
	return s.w.Write(p)
}
