package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/mcp"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
	"github.com/hpungsan/spinit/internal/spinner"
	"github.com/hpungsan/spinit/internal/web"
	"github.com/hpungsan/spinit/internal/wheel"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "spinit",
		Usage:   "Spin a wheel to pick one of your options",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ephemeral", Usage: "Keep spinners in memory only; nothing is saved"},
		},
		Before: func(c *cli.Context) error {
			if err := env.open(c.Context, c.Bool("ephemeral")); err != nil {
				return outputError(errors.NewPersistence("open storage", err))
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return env.close()
		},
		Commands: []*cli.Command{
			createCmd(env),
			editCmd(env),
			deleteCmd(env),
			listCmd(env),
			optionCmd(env),
			layoutCmd(env),
			spinCmd(env),
			exportCmd(env),
			importCmd(env),
			resetCmd(env),
			uiCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a spinner",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Spinner title"},
			&cli.StringFlag{Name: "icon", Aliases: []string{"i"}, Usage: "Emoji icon (defaults to the configured icon)"},
		},
		Action: func(c *cli.Context) error {
			icon := c.String("icon")
			if icon == "" {
				icon = env.cfg.DefaultIcon
			}
			output, err := env.coll.CreateSpinner(c.Context, c.String("title"), icon)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command. Omitted flags keep the current value.
func editCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a spinner's title or icon",
		ArgsUsage: "[--title TITLE] [--icon ICON] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "icon", Aliases: []string{"i"}, Usage: "New emoji icon"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "spinner id")
			if err != nil {
				return err
			}
			current, err := env.coll.GetSpinner(id)
			if err != nil {
				return outputError(err)
			}

			title, icon := current.Title, current.Icon
			if c.IsSet("title") {
				title = c.String("title")
			}
			if c.IsSet("icon") {
				icon = c.String("icon")
			}

			output, err := env.coll.UpdateSpinner(c.Context, id, title, icon)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a spinner and its options",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "spinner id")
			if err != nil {
				return err
			}
			if err := env.coll.DeleteSpinner(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": true, "id": id})
		},
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List spinners",
		Action: func(c *cli.Context) error {
			spinners := env.coll.ListSpinners()
			return outputJSON(map[string]any{
				"spinners": spinners,
				"total":    len(spinners),
			})
		},
	}
}

// optionCmd groups the option subcommands.
func optionCmd(env *appEnv) *cli.Command {
	spinnerFlag := &cli.StringFlag{Name: "spinner", Aliases: []string{"s"}, Required: true, Usage: "Spinner ID"}
	idFlag := &cli.StringFlag{Name: "id", Required: true, Usage: "Option ID"}
	nameFlag := &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Option text"}

	return &cli.Command{
		Name:  "option",
		Usage: "Manage a spinner's options",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Append an option",
				Flags: []cli.Flag{spinnerFlag, nameFlag},
				Action: func(c *cli.Context) error {
					output, err := env.coll.AddOption(c.Context, c.String("spinner"), c.String("name"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "edit",
				Usage: "Rename an option",
				Flags: []cli.Flag{spinnerFlag, idFlag, nameFlag},
				Action: func(c *cli.Context) error {
					output, err := env.coll.UpdateOption(c.Context, c.String("spinner"), c.String("id"), c.String("name"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "delete",
				Usage: "Remove an option",
				Flags: []cli.Flag{spinnerFlag, idFlag},
				Action: func(c *cli.Context) error {
					if err := env.coll.DeleteOption(c.Context, c.String("spinner"), c.String("id")); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": true, "id": c.String("id")})
				},
			},
			{
				Name:  "list",
				Usage: "List options in wheel order",
				Flags: []cli.Flag{spinnerFlag},
				Action: func(c *cli.Context) error {
					options, err := env.coll.ListOptions(c.String("spinner"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{
						"options": options,
						"total":   len(options),
					})
				},
			},
		},
	}
}

// layoutCmd creates the layout command.
func layoutCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "Show where each option sits on the wheel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spinner", Aliases: []string{"s"}, Required: true, Usage: "Spinner ID"},
		},
		Action: func(c *cli.Context) error {
			options, err := env.coll.ListOptions(c.String("spinner"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"options":  options,
				"geometry": wheel.Layout(len(options)),
			})
		},
	}
}

// spinOutput is the JSON form of a spin.
type spinOutput struct {
	SpinnerID string `json:"spinner_id"`
	wheel.Result
}

// spinCmd creates the spin command. In a terminal the wheel is animated
// until it settles; Ctrl-C leaves the wheel like the back gesture.
func spinCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "spin",
		Usage: "Spin a spinner's wheel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spinner", Aliases: []string{"s"}, Required: true, Usage: "Spinner ID"},
			&cli.BoolFlag{Name: "no-animate", Usage: "Print the result as JSON without animating"},
		},
		Action: func(c *cli.Context) error {
			id := c.String("spinner")
			s, err := env.coll.GetSpinner(id)
			if err != nil {
				return outputError(err)
			}
			sess, err := env.sessions.Open(id)
			if err != nil {
				return outputError(err)
			}
			defer env.sessions.Back(id)

			revealed := make(chan wheel.Result, 1)
			sess.OnReveal(func(r wheel.Result) {
				select {
				case revealed <- r:
				default:
				}
			})

			res, err := sess.Spin()
			if err != nil {
				return outputError(err)
			}

			if c.Bool("no-animate") || !isatty.IsTerminal(os.Stdout.Fd()) {
				return outputJSON(spinOutput{SpinnerID: id, Result: res})
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			return animateSpin(ctx, os.Stdout, sess, s, res, revealed, wheel.ParamsFromConfig(env.cfg))
		},
	}
}

// spinFrames cycle next to the option passing the pointer.
var spinFrames = []string{"◐", "◓", "◑", "◒"}

// animateSpin redraws the option under the pointer until the wheel settles
// or ctx is cancelled.
func animateSpin(ctx context.Context, w io.Writer, sess *session.Session, s spinner.Spinner, res wheel.Result, revealed <-chan wheel.Result, p wheel.Params) error {
	options, err := sess.Options()
	if err != nil {
		return outputError(err)
	}
	ticker := time.NewTicker(60 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case r := <-revealed:
			fmt.Fprintf(w, "\r\033[K%s %s → %s  (%d of %s)\n",
				s.Icon, s.Title, r.Selected.Name, r.SelectedIndex+1, english.Plural(r.OptionCount, "option", ""))
			return nil
		case <-ctx.Done():
			sess.BackHandler()()
			fmt.Fprintf(w, "\r\033[K%s %s stopped\n", s.Icon, s.Title)
			return nil
		case <-ticker.C:
			snap := sess.Snapshot()
			if snap.State != wheel.Spinning {
				continue
			}
			idx := wheel.IndexAt(snap.Angle, res.OptionCount, p.PointerOffsetDeg)
			if idx < 0 || idx >= len(options) {
				continue
			}
			fmt.Fprintf(w, "\r\033[K%s %s %s %s", s.Icon, s.Title, spinFrames[frame%len(spinFrames)], options[idx].Name)
		}
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export spinners to a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file (default: ~/.spinit/exports/<name>-<timestamp>.yaml)"},
			&cli.StringFlag{Name: "spinner", Aliases: []string{"s"}, Usage: "Export only this spinner"},
		},
		Action: func(c *cli.Context) error {
			output, err := env.coll.Export(ops.ExportInput{
				Path:      c.String("path"),
				SpinnerID: c.String("spinner"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import spinners from a YAML export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input file"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "ID collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := env.coll.Import(ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete every spinner and option",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deleting everything"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("reset deletes every spinner; pass --yes to confirm"))
			}
			count := len(env.coll.ListSpinners())
			env.sessions.CloseAll()
			if err := env.coll.Reset(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"reset": true, "deleted": count})
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the spinner wheel in your browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config, 8787)"},
		},
		Action: func(c *cli.Context) error {
			bind := env.cfg.UIBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := env.cfg.UIPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(web.Options{
				Collection: env.coll,
				Sessions:   env.sessions,
				Config:     env.cfg,
				Version:    Version,
				Bind:       bind,
				Port:       port,
				Logger:     env.log,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, env.log, func(ctx context.Context) {
				env.sessions.CloseAll()
				if err := env.coll.Flush(ctx); err != nil {
					env.log.Error("Error saving spinners", "error", err)
				}
			})
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(env.cfg.DisabledTools); len(unknown) > 0 {
				env.log.Warn("unknown tools in disabled_tools", "tools", unknown)
			}
			return mcp.Run(env.coll, env.sessions, env.cfg, Version)
		},
	}
}

// Helper functions

// requireArg returns the single positional argument or a usage error.
// Flag parsing stops at the first positional argument, so anything after it
// would be silently ignored; that is rejected instead.
func requireArg(c *cli.Context, what string) (string, error) {
	switch {
	case c.NArg() == 0:
		return "", outputError(errors.NewInvalidRequest(what + " is required"))
	case c.NArg() > 1:
		return "", outputError(errors.NewInvalidRequest(fmt.Sprintf(
			"unexpected arguments after %s: %v (flags go before the %s)", what, c.Args().Tail(), what)))
	}
	return c.Args().First(), nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	sErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
}
