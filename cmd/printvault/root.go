package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printvault/internal/config"
	"printvault/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		outputName string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "printvault",
		Short:         "Printvault stores and links 3D-printing sessions, jobs and their artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
			formatter, err := format.ForName(outputName)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVarP(&outputName, "output", "o", format.Text, "output format: text, json or yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newSessionCmd(cfg),
		newBlobCmd(cfg),
		newDictCmd(cfg),
		newPrinterCmd(cfg),
		newMigrateCmd(cfg),
		newInfoCmd(cfg),
		newConfigCmd(cfg),
		newTokenCmd(),
	)

	return cmd
}
