package command

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/cli/repl"
)

// passthroughFlags are the global flags the shell forwards to each line.
var passthroughFlags = []string{"config", "data-dir", "endpoint", "log-level", "output"}

// ShellCommand starts an interactive session running the same commands.
func ShellCommand(o appOptions) *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive mode",
		Action: func(c *cli.Context) error {
			env := envFrom(c)

			var global []string
			for _, name := range passthroughFlags {
				if c.IsSet(name) {
					global = append(global, "--"+name, c.String(name))
				}
			}

			run := func(ctx context.Context, args []string) error {
				if args[0] == "shell" {
					return errors.New("already in the shell")
				}
				app := App(WithWriters(o.out, o.err), WithProbe(o.probe))
				argv := append([]string{app.Name}, global...)
				return app.RunContext(ctx, append(argv, args...))
			}

			hist := repl.NewHistory(filepath.Join(env.Config.DataDir, "history"))
			if err := hist.Load(); err != nil {
				env.Logger.Warn("history not loaded", "error", err)
			}
			defer func() {
				if err := hist.Save(); err != nil {
					env.Logger.Warn("history not saved", "error", err)
				}
			}()

			r := repl.New(run,
				repl.WithIO(o.in, o.out),
				repl.WithHistory(hist),
				repl.WithCompleter(repl.NewCompleter(commandPaths(c.App.Commands, "")...)),
			)
			return r.Run(c.Context)
		},
	}
}

// commandPaths lists "cmd", "cmd sub", ... for completion.
func commandPaths(cmds []*cli.Command, parent string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "help" {
			continue
		}
		path := strings.TrimSpace(parent + " " + cmd.Name)
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}
