package command

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/cli/output"
	"github.com/yndnr/dinekit-go/internal/securestore"
	"github.com/yndnr/dinekit-go/internal/securestore/backup"
)

// StoreCommand returns the store subcommand group.
func StoreCommand() *cli.Command {
	policyFlag := &cli.StringFlag{
		Name:    "policy",
		Aliases: []string{"p"},
		Usage:   "session, persistent or auto",
		Value:   "auto",
	}
	passphraseFlag := &cli.StringFlag{
		Name:     "passphrase",
		Usage:    "backup passphrase (at least 8 characters)",
		EnvVars:  []string{"DINEKIT_BACKUP_PASSPHRASE"},
		Required: true,
	}

	return &cli.Command{
		Name:  "store",
		Usage: "Read and write device-bound encrypted values",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt and store a value",
				ArgsUsage: "KEY VALUE",
				Flags: []cli.Flag{
					policyFlag,
					&cli.DurationFlag{
						Name:    "ttl",
						Aliases: []string{"t"},
						Usage:   "expire after this duration (e.g. 60m); 0 keeps it until removed",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "parse VALUE as JSON instead of storing it as a string",
					},
				},
				Action: storeSet,
			},
			{
				Name:      "get",
				Usage:     "Decrypt and print a value",
				ArgsUsage: "KEY",
				Flags:     []cli.Flag{policyFlag},
				Action:    storeGet,
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove a value from both backends",
				ArgsUsage: "KEY",
				Action:    storeRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove every dinekit value",
				Action: storeClear,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored keys",
				Action:  storeList,
			},
			{
				Name:      "export",
				Usage:     "Write a passphrase-encrypted backup that another device can import",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{passphraseFlag},
				Action:    storeExport,
			},
			{
				Name:      "import",
				Usage:     "Restore a backup and bind its values to this device",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{passphraseFlag},
				Action:    storeImport,
			},
			{
				Name:      "inspect",
				Usage:     "Show a backup's header without decrypting it",
				ArgsUsage: "FILE",
				Action:    storeInspect,
			},
			{
				Name:   "purge",
				Usage:  "Delete expired and foreign-device values",
				Action: storePurge,
			},
		},
	}
}

func storeSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return usageError(c)
	}
	policy, err := securestore.ParsePolicy(c.String("policy"))
	if err != nil {
		return err
	}

	key, raw := c.Args().Get(0), c.Args().Get(1)
	var value any = raw
	if c.Bool("json") {
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("value is not valid JSON")
		}
		value = json.RawMessage(raw)
	}

	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	s.SetItem(c.Context, key, value, policy, c.Duration("ttl"))
	return nil
}

func storeGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	policy, err := securestore.ParsePolicy(c.String("policy"))
	if err != nil {
		return err
	}

	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	key := c.Args().First()
	var value any
	if !s.GetItem(c.Context, key, policy, &value) {
		return cli.Exit(fmt.Sprintf("%s: not found", key), 3)
	}
	if str, ok := value.(string); ok && env.Format == output.FormatTable {
		_, err := fmt.Fprintln(env.Out, str)
		return err
	}
	return env.Print(value)
}

func storeRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	s, err := envFrom(c).Store(c.Context)
	if err != nil {
		return err
	}
	s.RemoveItem(c.Context, c.Args().First())
	return nil
}

func storeClear(c *cli.Context) error {
	s, err := envFrom(c).Store(c.Context)
	if err != nil {
		return err
	}
	s.Clear(c.Context)
	return nil
}

type keyRow struct {
	Key string `json:"key" yaml:"key"`
}

func storeList(c *cli.Context) error {
	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	keys := s.Keys(c.Context)
	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{Key: k}
	}
	return env.Print(rows)
}

type purgeResult struct {
	Removed int `json:"removed" yaml:"removed"`
}

func storePurge(c *cli.Context) error {
	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	return env.Print(purgeResult{Removed: s.Purge(c.Context)})
}

type backupResult struct {
	File    string    `json:"file" yaml:"file"`
	Items   int       `json:"items" yaml:"items"`
	Created time.Time `json:"created" yaml:"created"`
}

func storeExport(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	items, err := s.Export(c.Context)
	if err != nil {
		return err
	}

	path := c.Args().First()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	h, err := backup.Write(f, items, []byte(c.String("passphrase")))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return env.Print(backupResult{File: path, Items: h.ItemCount, Created: h.Created()})
}

func storeImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	items, h, err := backup.Read(f, []byte(c.String("passphrase")))
	if err != nil {
		return err
	}
	env := envFrom(c)
	s, err := env.Store(c.Context)
	if err != nil {
		return err
	}
	n := s.Import(c.Context, items)
	return env.Print(backupResult{File: path, Items: n, Created: h.Created()})
}

type backupInfo struct {
	File    string    `json:"file" yaml:"file"`
	Version int       `json:"version" yaml:"version"`
	Items   int       `json:"items" yaml:"items"`
	Cipher  string    `json:"cipher" yaml:"cipher"`
	Created time.Time `json:"created" yaml:"created"`
}

func storeInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := backup.ReadHeader(f)
	if err != nil {
		return err
	}
	return envFrom(c).Print(backupInfo{
		File:    path,
		Version: h.Version,
		Items:   h.ItemCount,
		Cipher:  h.Cipher,
		Created: h.Created(),
	})
}
