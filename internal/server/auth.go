package server

import (
	"crypto/sha256"
	"net/http"
	"strings"

	internalauth "printvault/internal/auth"
)

// withAuth requires a bearer token matching the configured bcrypt hash on
// every route except /health. Tokens that verified once are remembered by
// digest so bcrypt runs once per distinct token.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenHash == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok || !s.verifyToken(token) {
			s.writeError(w, r, unauthorized("missing or invalid bearer token"), ErrCodeNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verifyToken(token string) bool {
	digest := sha256.Sum256([]byte(token))
	if _, ok := s.verifiedTokens.Load(digest); ok {
		return true
	}
	if !internalauth.VerifyToken(s.tokenHash, token) {
		return false
	}
	s.verifiedTokens.Store(digest, struct{}{})
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
