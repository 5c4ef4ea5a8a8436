package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/transfer"
)

// stored stands in for a mod's module when only its stored settings are
// at hand. It has no defaults, so imports keep the payload as is.
type stored struct {
	module.Base
	key string
}

func (s *stored) SettingsKey() string { return s.key }

// newTransfer builds a Transfer over one stand-in module per stored
// settings key, plus extra.
func (c *cli) newTransfer(store *storage.Store, extra ...string) (*transfer.Transfer, error) {
	keys := map[string]bool{}
	for k := range store.Settings() {
		if k != storage.VersionKey {
			keys[k] = true
		}
	}
	for _, k := range extra {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	reg := module.NewRegistry(c.logger)
	for _, k := range sorted {
		if err := reg.Register(k, &stored{key: k}); err != nil {
			return nil, err
		}
	}
	mgr := module.NewManager(reg, store, module.WithLogger(c.logger.WithPrefix("modules")))
	return transfer.New(mgr, c.logger.WithPrefix("transfer")), nil
}

func newExportCommand(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [module...]",
		Short: "Write stored module settings as a portable payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			t, err := c.newTransfer(store)
			if err != nil {
				return err
			}
			keys := args
			if len(keys) == 0 {
				keys = t.Modules()
			}
			payload, err := t.Export(keys...)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Fprintln(c.stdout, payload)
				return nil
			}
			return os.WriteFile(output, []byte(payload+"\n"), 0o600)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newImportCommand(c *cli) *cobra.Command {
	var (
		only   []string
		create bool
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Merge a payload written by export into the stored settings",
		Long: `Import reads a payload written by export, from a file or standard input,
and merges each module's settings into the stored ones. Modules without
stored settings are skipped unless --create is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			raw, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			payload := strings.TrimSpace(string(raw))

			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			var extra []string
			if create {
				if extra, err = transfer.Peek(payload); err != nil {
					return err
				}
			}
			t, err := c.newTransfer(store, extra...)
			if err != nil {
				return err
			}
			rep, err := t.Import(cmd.Context(), payload, only...)
			if err != nil {
				return err
			}

			for _, k := range rep.Imported {
				fmt.Fprintf(c.stdout, "imported %s\n", k)
			}
			for _, k := range rep.Skipped {
				fmt.Fprintf(c.stdout, "skipped %s\n", k)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "import only these modules")
	cmd.Flags().BoolVar(&create, "create", false, "import modules that have no stored settings yet")
	return cmd
}
