package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/modkit/internal/app"
	"github.com/dshills/modkit/internal/host/lua"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage/sqlite"
)

// hostCall is one host function call given on the command line as
// Name or Name=<json argument>.
type hostCall struct {
	name string
	args []any
}

func parseCall(s string) (hostCall, error) {
	name, raw, hasArg := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return hostCall{}, fmt.Errorf("call %q: missing function name", s)
	}
	if !hasArg {
		return hostCall{name: name}, nil
	}
	if !gjson.Valid(raw) {
		return hostCall{}, fmt.Errorf("call %q: argument is not JSON", s)
	}
	return hostCall{name: name, args: []any{gjson.Parse(raw).Value()}}, nil
}

func newRunCommand(c *cli) *cobra.Command {
	var (
		calls  []string
		script string
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Start the framework against a Lua host",
		Long: `Run loads a Lua script defining the host functions, starts the framework
on it, calls the requested host functions in order and shuts down.

Each --call is a function name, optionally followed by = and one JSON
argument:

  modkit run host.lua --call 'LoginResponse={"Name":"a","AccountName":"a"}' --call ChatRoomSync`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				script = args[0]
			}
			if script == "" {
				script = c.cfg.Host.Script
			}
			if script == "" {
				return fmt.Errorf("no host script: pass one or set host.script")
			}

			parsed := make([]hostCall, 0, len(calls))
			for _, s := range calls {
				hc, err := parseCall(s)
				if err != nil {
					return err
				}
				parsed = append(parsed, hc)
			}
			return c.run(cmd.Context(), script, parsed, wait)
		},
	}

	cmd.Flags().StringArrayVar(&calls, "call", nil, "host function to call after startup (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", false, "keep running until interrupted")
	return cmd
}

func (c *cli) run(ctx context.Context, script string, calls []hostCall, wait bool) error {
	h := lua.NewHost()
	defer h.Close()
	if err := h.DoFile(script); err != nil {
		return fmt.Errorf("load host script: %w", err)
	}

	db, err := sqlite.Open(c.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := app.New(app.Options{
		Config:   c.cfg,
		Host:     h,
		Slot:     db.Slot(c.cfg.SlotName()),
		Cache:    db,
		Notifier: notify.NewLogNotifier(c.logger.WithPrefix("notice")),
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return &exitError{code: 2, err: err}
	}

	for _, hc := range calls {
		res, err := h.Call(hc.name, hc.args...)
		if err != nil {
			c.logger.Error("host call failed", "function", hc.name, "err", err)
			continue
		}
		if res != nil {
			fmt.Fprintf(c.stdout, "%s: %v\n", hc.name, res)
		}
	}

	if wait {
		c.logger.Info("running, interrupt to stop")
		<-ctx.Done()
	}

	return a.Shutdown(context.WithoutCancel(ctx))
}
