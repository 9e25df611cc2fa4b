package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"printvault/internal/aggregate"
	"printvault/internal/config"
	"printvault/internal/server"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the printvault API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			env, err := openLocal(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			srv := server.New(addr, server.Deps{
				Sessions:  aggregate.New(env.store, logger.With("component", "aggregate")),
				Catalog:   env.catalog,
				Blobs:     env.blobs,
				Info:      env.store,
				TokenHash: cfg.APITokenHash,
				DBPath:    cfg.DBPath,
			}, logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}
}
