package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"printvault/internal/api"
	"printvault/internal/config"
)

func newBlobCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Store and fetch raw payloads",
	}
	cmd.AddCommand(newBlobPutCmd(cfg), newBlobGetCmd(cfg), newBlobArchiveCmd(cfg))
	return cmd
}

func newBlobPutCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>...",
		Short: "Store files and print their blob ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				ids := make([]string, 0, len(args))
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					id, err := env.blobs.Put(cmd.Context(), data, filepath.Base(path), nil)
					if err != nil {
						return fmt.Errorf("store %s: %w", path, err)
					}
					ids = append(ids, id)
				}
				if ok, err := writeStructured(ids); ok {
					return err
				}
				for i, id := range ids {
					if err := writePlain("%s %s\n", id, args[i]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newBlobGetCmd(cfg *config.Config) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "get <blob-id>",
		Short: "Download a payload under its stored filename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				tmp, err := os.CreateTemp(dir, ".printvault-download-*")
				if err != nil {
					return err
				}
				defer os.Remove(tmp.Name())

				name, err := client.DownloadBlob(cmd.Context(), args[0], tmp)
				if closeErr := tmp.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}
				if name == "" {
					name = args[0]
				}

				target := filepath.Join(dir, filepath.Base(name))
				if err := os.Rename(tmp.Name(), target); err != nil {
					return err
				}
				return writePlain("%s\n", target)
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the payload into")
	return cmd
}

func newBlobArchiveCmd(cfg *config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "archive <blob-id>...",
		Short: "Download several payloads as one zip archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				err = client.DownloadArchive(cmd.Context(), args, f)
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					_ = os.Remove(out)
					return err
				}
				return writePlain("%s\n", out)
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "blobs.zip", "archive path")
	return cmd
}
