package main

import (
	"context"
	"errors"
	"log/slog"

	"printvault/internal/blobs"
	"printvault/internal/blobstore"
	"printvault/internal/catalog"
	"printvault/internal/config"
	"printvault/internal/store"
)

// localEnv is the in-process stack used by commands that write, and by srv.
type localEnv struct {
	store   *store.Store
	blobs   *blobs.Store
	catalog *catalog.Repository
}

func openLocal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*localEnv, error) {
	if cfg == nil {
		return nil, errors.New("config not initialized")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("db path is required")
	}

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	payloads, err := blobstore.New(ctx, blobstore.Config{
		Backend:  cfg.Blobs.Backend,
		Root:     cfg.Blobs.Root,
		Bucket:   cfg.Blobs.Bucket,
		Prefix:   cfg.Blobs.Prefix,
		Region:   cfg.Blobs.Region,
		Endpoint: cfg.Blobs.Endpoint,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	guard, err := catalog.NewGuard(catalog.GuardConfig{
		Mode:      cfg.Dedup.Guard,
		RedisAddr: cfg.Dedup.RedisAddr,
		LockTTL:   cfg.LockTTL(),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	blobStore := blobs.New(st, payloads, logger)
	repo := catalog.New(st, blobStore, catalog.WithGuard(guard), catalog.WithLogger(logger))
	return &localEnv{store: st, blobs: blobStore, catalog: repo}, nil
}

func (e *localEnv) Close() error {
	return e.store.Close()
}

func withLocal(ctx context.Context, cfg *config.Config, fn func(*localEnv) error) error {
	env, err := openLocal(ctx, cfg, slog.Default().With("component", "cli"))
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}
