package main

import (
	"sort"

	"github.com/spf13/cobra"

	"printvault/internal/api"
	"printvault/internal/config"
)

func newInfoCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database statistics from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := writeStructured(resp); ok {
					return err
				}
				return writeInfo(resp)
			})
		},
	}
}

func writeInfo(resp api.InfoResponse) error {
	_ = writePlain("db_path: %s\n", resp.DBPath)
	_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
	_ = writePlain("queued_entities: %d\n", resp.QueuedEntities)
	_ = writePlain("total_blob_bytes: %d\n", resp.TotalBlobBytes)
	_ = writePlain("unlinked_image_collections: %d\n", resp.UnlinkedCollections)

	names := make([]string, 0, len(resp.Collections))
	for name := range resp.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	_ = writePlain("collections:\n")
	for _, name := range names {
		if err := writePlain("  %s: %d\n", name, resp.Collections[name]); err != nil {
			return err
		}
	}
	return nil
}
