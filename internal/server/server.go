// Package server is the read-only HTTP facade over the vault.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"printvault/internal/models"
	"printvault/internal/store"
)

const (
	allowRemoteEnvKey   = "PRINTVAULT_ALLOW_REMOTE"
	readHeaderTimeout   = 5 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 5 * time.Minute
	idleTimeout         = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
	archiveLimit        = 1
	maxArchiveBlobCount = 1000
)

// SessionReader resolves aggregated session views.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*models.SessionView, error)
}

// Catalog lists session shells and dictionary names.
type Catalog interface {
	ListSessions(ctx context.Context, limit int) ([]models.Session, error)
	GlobalKeys(ctx context.Context) ([]string, error)
}

// BlobReader serves stored payloads.
type BlobReader interface {
	Open(ctx context.Context, id string) (*models.File, error)
	Archive(ctx context.Context, w io.Writer, ids []string) error
}

// InfoReader reports database statistics.
type InfoReader interface {
	StoreInfo(ctx context.Context) (*store.StoreInfo, error)
}

// Deps are the collaborators the facade reads through.
type Deps struct {
	Sessions SessionReader
	Catalog  Catalog
	Blobs    BlobReader
	Info     InfoReader
	// TokenHash is the bcrypt hash of the bearer token. Empty disables auth.
	TokenHash string
	DBPath    string
}

// Server wraps HTTP handlers for the printvault API.
type Server struct {
	addr           string
	sessions       SessionReader
	catalog        Catalog
	blobs          BlobReader
	info           InfoReader
	dbPath         string
	tokenHash      string
	verifiedTokens sync.Map
	logger         *slog.Logger
	archiveLimiter chan struct{}
}

// New creates a new server instance.
func New(addr string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:           addr,
		sessions:       deps.Sessions,
		catalog:        deps.Catalog,
		blobs:          deps.Blobs,
		info:           deps.Info,
		dbPath:         deps.DBPath,
		tokenHash:      strings.TrimSpace(deps.TokenHash),
		logger:         logger.With("component", "server"),
		archiveLimiter: make(chan struct{}, archiveLimit),
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.withAuth(s.routes()))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr, "auth", s.tokenHash != "")
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		s.writeError(w, r, throttled("too many concurrent %s requests", name), ErrCodeNotFound)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
