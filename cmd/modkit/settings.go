package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/modkit/internal/codec"
	"github.com/dshills/modkit/internal/storage"
)

func newSettingsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit stored settings",
	}
	cmd.AddCommand(
		newSettingsShowCommand(c),
		newSettingsGetCommand(c),
		newSettingsSetCommand(c),
		newSettingsDeleteCommand(c),
		newSettingsSizeCommand(c),
	)
	return cmd
}

func newSettingsShowCommand(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [module]",
		Short: "Print the stored settings, or one module's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			var v any = map[string]any(store.Settings())
			if len(args) == 1 {
				m, ok := store.Settings().Module(args[0])
				if !ok {
					return fmt.Errorf("no settings for %s", args[0])
				}
				v = m
			}
			return writeValue(c, v, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func writeValue(c *cli, v any, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, string(out))
	case "yaml":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// document returns the stored settings as a JSON document.
func document(store *storage.Store) ([]byte, error) {
	payload, err := codec.Encode(map[string]any(store.Settings()))
	if err != nil {
		return nil, err
	}
	return codec.DecodeJSON(payload)
}

// replaceDocument decodes doc into the live settings and saves them.
func replaceDocument(cmd *cobra.Command, store *storage.Store, doc []byte) error {
	payload, err := codec.EncodeJSON(doc)
	if err != nil {
		return err
	}
	settings, err := codec.DecodeMap(payload)
	if err != nil {
		return err
	}
	store.Replace(storage.Settings(settings))
	return store.Save(cmd.Context())
}

func newSettingsGetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a path such as GlobalModule.modEnabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			doc, err := document(store)
			if err != nil {
				return err
			}
			res := gjson.GetBytes(doc, args[0])
			if !res.Exists() {
				return &exitError{code: 1, err: fmt.Errorf("%s: not set", args[0])}
			}
			if res.Type == gjson.String {
				fmt.Fprintln(c.stdout, res.String())
			} else {
				fmt.Fprintln(c.stdout, res.Raw)
			}
			return nil
		},
	}
}

func newSettingsSetCommand(c *cli) *cobra.Command {
	var asString bool

	cmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set the value at a path and save",
		Long: `Set writes a value into the stored settings. Values that are valid JSON
(true, 12, [1,2], {"a":1}) are stored as such; anything else, or any value
with --string, is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			doc, err := document(store)
			if err != nil {
				return err
			}
			path, value := args[0], args[1]
			if !asString && gjson.Valid(value) {
				doc, err = sjson.SetRawBytes(doc, path, []byte(value))
			} else {
				doc, err = sjson.SetBytes(doc, path, value)
			}
			if err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
			return replaceDocument(cmd, store, doc)
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "store the value as a string")
	return cmd
}

func newSettingsDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Remove the value at a path and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			doc, err := document(store)
			if err != nil {
				return err
			}
			if !gjson.GetBytes(doc, args[0]).Exists() {
				return &exitError{code: 1, err: fmt.Errorf("%s: not set", args[0])}
			}
			doc, err = sjson.DeleteBytes(doc, args[0])
			if err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			return replaceDocument(cmd, store, doc)
		},
	}
}

func newSettingsSizeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the encoded size of the stored settings in bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := store.Size()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, n)
			return nil
		},
	}
}
