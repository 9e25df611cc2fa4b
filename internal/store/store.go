package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const busyTimeoutMS = 5000

const (
	maxOpenConnsEnvKey    = "PRINTVAULT_DB_MAX_OPEN_CONNS"
	maxIdleConnsEnvKey    = "PRINTVAULT_DB_MAX_IDLE_CONNS"
	connMaxLifetimeEnvKey = "PRINTVAULT_DB_CONN_MAX_LIFETIME"
)

// poolConfig sizes the database/sql pool. SQLite allows one writer, so the
// defaults keep a single connection.
type poolConfig struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

func poolConfigFromEnv() poolConfig {
	return poolConfig{
		maxOpen:     positiveInt(os.Getenv(maxOpenConnsEnvKey), 1),
		maxIdle:     positiveInt(os.Getenv(maxIdleConnsEnvKey), 1),
		maxLifetime: positiveDuration(os.Getenv(connMaxLifetimeEnvKey), 5*time.Minute),
	}
}

func (p poolConfig) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)
}

// Store wraps the SQLite database holding every collection.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenDB opens and tunes the database without touching the schema.
func OpenDB(path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}
	poolConfigFromEnv().apply(db)
	return db, nil
}

// New wraps an already configured database handle. Migrations are not run.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteDSN(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("db path is required")
	}
	return (&url.URL{Scheme: "file", Path: path}).String(), nil
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// positiveDuration accepts Go durations or a bare number of seconds.
func positiveDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(seconds) + "s"
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
