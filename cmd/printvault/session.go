package main

import (
	"github.com/spf13/cobra"

	"printvault/internal/api"
	"printvault/internal/config"
)

func newSessionCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect recorded print sessions",
	}
	cmd.AddCommand(newSessionShowCmd(cfg), newSessionListCmd(cfg))
	return cmd
}

func newSessionShowCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session with its print job, printer, object, images and timeseries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				view, err := client.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := writeStructured(view); ok {
					return err
				}
				return writeSessionDetail(view)
			})
		},
	}
}

func newSessionListCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				sessions, err := client.ListSessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ok, err := writeStructured(sessions); ok {
					return err
				}
				return writeSessionList(sessions)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of sessions")
	return cmd
}
