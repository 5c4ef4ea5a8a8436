package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/modkit/internal/config"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/storage/sqlite"
)

// cli holds the state shared by every command.
type cli struct {
	cfgFile string
	dbPath  string
	slot    string
	verbose bool

	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *log.Logger
}

func versionString() string {
	if buildVersion == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildVersion, buildCommit, buildDate)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "modkit",
		Short: "Run mods and manage their stored settings",
		Long: `modkit runs mods built on the modkit framework against a Lua-scripted
host and inspects, edits, exports and imports the settings they persist.

Examples:
  modkit run host.lua --call ChatRoomSync
  modkit settings show --format yaml
  modkit settings set GlobalModule.modEnabled false
  modkit export GlobalModule > backup.txt
  modkit version compare 1.2.0 1.3.0`,
		Version:           versionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup() },
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "modkit.toml", "configuration file")
	flags.StringVar(&c.dbPath, "db", "", "settings database (overrides storage.path)")
	flags.StringVar(&c.slot, "slot", "", "settings slot (overrides storage.slot)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(c),
		newSettingsCommand(c),
		newExportCommand(c),
		newImportCommand(c),
		newVersionCommand(c),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (c *cli) setup() error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Storage.Path = c.dbPath
	}
	if c.slot != "" {
		cfg.Storage.Slot = c.slot
	}
	c.cfg = cfg

	c.logger = cfg.Log.NewLogger(c.stderr)
	if c.verbose || cfg.Debug {
		c.logger.SetLevel(log.DebugLevel)
	}
	return nil
}

// openStore opens the settings database and takes the configured slot.
func (c *cli) openStore(cmd *cobra.Command) (*storage.Store, func(), error) {
	db, err := sqlite.Open(c.cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewStore(db.Slot(c.cfg.SlotName()),
		storage.WithCache(db),
		storage.WithLogger(c.logger.WithPrefix("storage")))
	if _, err := store.Take(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() {
		if err := db.Close(); err != nil {
			c.logger.Warn("close settings database", "err", err)
		}
	}, nil
}
