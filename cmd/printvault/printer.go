package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"printvault/internal/config"
)

func newPrinterCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "printer",
		Short: "Register printers",
	}
	cmd.AddCommand(newPrinterAddCmd(cfg))
	return cmd
}

func newPrinterAddCmd(cfg *config.Config) *cobra.Command {
	var (
		infoFile string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "add <printer-identifier>",
		Short: "Register a printer, or print the id it is already registered under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := printerInfo(infoFile, fields)
			if err != nil {
				return err
			}
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				id, err := env.catalog.CreateOrGetPrinter(cmd.Context(), args[0], info)
				if err != nil {
					return err
				}
				if ok, err := writeStructured(map[string]string{"id": id, "printer_id": args[0]}); ok {
					return err
				}
				return writePlain("%s\n", id)
			})
		},
	}

	cmd.Flags().StringVar(&infoFile, "info-file", "", "YAML file with printer info")
	cmd.Flags().StringArrayVar(&fields, "set", nil, "info field as key=value; repeatable, values parsed as YAML scalars")
	return cmd
}

// printerInfo merges the info file with --set fields; fields win.
func printerInfo(infoFile string, fields []string) (map[string]any, error) {
	info := map[string]any{}
	if infoFile != "" {
		raw, err := os.ReadFile(infoFile)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("parse %s: %w", infoFile, err)
		}
	}

	for _, field := range fields {
		key, raw, ok := strings.Cut(field, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", field)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		info[key] = value
	}
	return info, nil
}
