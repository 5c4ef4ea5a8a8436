package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/modkit/internal/version"
)

func newVersionCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version, or compare mod versions",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintf(c.stdout, "modkit %s\n", versionString())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "compare <current> <candidate>",
		Short: "Report whether candidate counts as a new version of current",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			current, candidate := args[0], args[1]
			if version.IsNewVersion(current, candidate) {
				fmt.Fprintf(c.stdout, "%s is newer than %s\n", candidate, current)
				return nil
			}
			fmt.Fprintf(c.stdout, "%s is not newer than %s\n", candidate, current)
			return &exitError{code: 1}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stored",
		Short: "Print the version recorded in the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer done()

			v := store.Settings().Version()
			if v == "" {
				v = "none"
			}
			fmt.Fprintln(c.stdout, v)

			if running := c.cfg.Mod.Version; version.IsNewVersion(store.Settings().Version(), running) {
				c.logger.Info("stored settings predate the configured version", "running", running)
			}
			return nil
		},
	})
	return cmd
}
