package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"printvault/internal/api"
	"printvault/internal/config"
	"printvault/internal/models"
)

// dictionaryDocument is the YAML layout read by import and written by export.
type dictionaryDocument struct {
	Dictionaries []dictionaryEntry `yaml:"dictionaries"`
}

type dictionaryEntry struct {
	ID      string            `json:"id,omitempty" yaml:"id,omitempty"`
	Printer string            `json:"printer" yaml:"printer"`
	Slicer  string            `json:"slicer" yaml:"slicer"`
	Dict    map[string]string `json:"dict" yaml:"dict"`
}

func newDictCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage slicer terminology dictionaries",
	}
	cmd.AddCommand(
		newDictShowCmd(cfg),
		newDictSetCmd(cfg),
		newDictMergeCmd(cfg),
		newDictKeysCmd(cfg),
		newDictExportCmd(cfg),
		newDictImportCmd(cfg),
	)
	return cmd
}

func newDictShowCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <printer> <slicer>",
		Short: "Show the dictionary for a printer and slicer, creating it when missing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				mapping, id, err := env.catalog.GetOrCreateDictionary(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				entry := dictionaryEntry{ID: id, Printer: args[0], Slicer: args[1], Dict: mapping}
				if ok, err := writeStructured(entry); ok {
					return err
				}
				if err := writePlain("id: %s\n", id); err != nil {
					return err
				}
				return writeMapping(mapping)
			})
		},
	}
}

func newDictSetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <dictionary-id> <mapping.yaml>",
		Short: "Replace a dictionary's mapping with the contents of a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := readMappingFile(args[1])
			if err != nil {
				return err
			}
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				return env.catalog.ReplaceDictionary(cmd.Context(), args[0], mapping)
			})
		},
	}
}

func newDictMergeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <mapping.yaml>",
		Short: "Register a mapping's canonical names in the global dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := readMappingFile(args[0])
			if err != nil {
				return err
			}
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				return env.catalog.MergeIntoGlobal(cmd.Context(), mapping)
			})
		},
	}
}

func newDictKeysCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List canonical names from the global dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				keys, err := client.GlobalKeys(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := writeStructured(keys); ok {
					return err
				}
				for _, key := range keys {
					if err := writePlain("%s\n", key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newDictExportCmd(cfg *config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every dictionary to a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				dicts, err := env.catalog.ListDictionaries(cmd.Context())
				if err != nil {
					return err
				}
				w := stdout
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return writeDictionaryDocument(w, dicts)
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "-", "file to write, - for stdout")
	return cmd
}

func newDictImportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dictionaries.yaml>",
		Short: "Replace dictionaries with the entries of an exported YAML document; global names are merged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := readDictionaryDocument(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return withLocal(cmd.Context(), cfg, func(env *localEnv) error {
				for _, entry := range doc.Dictionaries {
					if entry.Printer == "" && entry.Slicer == "" {
						if err := env.catalog.MergeIntoGlobal(cmd.Context(), entry.Dict); err != nil {
							return err
						}
						continue
					}
					_, id, err := env.catalog.GetOrCreateDictionary(cmd.Context(), entry.Printer, entry.Slicer)
					if err != nil {
						return err
					}
					if err := env.catalog.ReplaceDictionary(cmd.Context(), id, entry.Dict); err != nil {
						return err
					}
				}
				return writePlain("imported %d dictionaries\n", len(doc.Dictionaries))
			})
		},
	}
}

func writeDictionaryDocument(w io.Writer, dicts []models.Dictionary) error {
	doc := dictionaryDocument{Dictionaries: make([]dictionaryEntry, 0, len(dicts))}
	for _, d := range dicts {
		doc.Dictionaries = append(doc.Dictionaries, dictionaryEntry{ID: d.ID, Printer: d.Printer, Slicer: d.Slicer, Dict: d.Mapping})
	}
	sort.Slice(doc.Dictionaries, func(i, j int) bool {
		a, b := doc.Dictionaries[i], doc.Dictionaries[j]
		if a.Printer != b.Printer {
			return a.Printer < b.Printer
		}
		return a.Slicer < b.Slicer
	})

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func readDictionaryDocument(r io.Reader) (dictionaryDocument, error) {
	var doc dictionaryDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return dictionaryDocument{}, err
	}
	for i, entry := range doc.Dictionaries {
		if entry.Dict == nil {
			doc.Dictionaries[i].Dict = map[string]string{}
		}
	}
	return doc, nil
}

// readMappingFile parses a flat YAML mapping of raw name to canonical name.
func readMappingFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mapping := map[string]string{}
	if err := yaml.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return mapping, nil
}
