package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/cli/output"
	"github.com/yndnr/dinekit-go/internal/client/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Effective client configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the config file in use and the data directories",
				Action: configPathAction,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env := envFrom(c)
	cfg := config.Sanitize(env.Config)
	// Nested sections do not fit a table.
	if env.Format == output.FormatTable {
		return output.NewFormatter(output.FormatYAML).Format(env.Out, cfg)
	}
	return env.Print(cfg)
}

type configPaths struct {
	ConfigFile string `json:"config_file" yaml:"config_file"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	SessionDir string `json:"session_dir" yaml:"session_dir"`
	Persistent string `json:"persistent" yaml:"persistent"`
}

func configPathAction(c *cli.Context) error {
	env := envFrom(c)
	file := env.ConfigPath
	if file == "" {
		file = "(none, using defaults)"
	}
	persistent := env.Config.Store.Persistent.Dir
	if env.Config.Store.Persistent.Engine == "redis" {
		persistent = fmt.Sprintf("redis://%s/%d", env.Config.Store.Persistent.Redis.Addr, env.Config.Store.Persistent.Redis.DB)
	}
	return env.Print(configPaths{
		ConfigFile: file,
		DataDir:    env.Config.DataDir,
		SessionDir: env.Config.Store.Session.Dir,
		Persistent: persistent,
	})
}
