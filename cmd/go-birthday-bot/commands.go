package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/store"
	"github.com/urfave/cli/v2"
)

// newApp builds the command tree. Logging is attached by runMain.
func newApp() *cli.App {
	cli.VersionPrinter = printVersion

	return &cli.App{
		Name:    config.AppCommand,
		Usage:   config.AppUsage,
		Version: config.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: config.FlagConfig, Value: config.DefaultSettingsPath, Usage: config.FlagDescConfig},
			&cli.BoolFlag{Name: config.FlagDebug, Usage: config.FlagDescDebug},
		},
		Commands: []*cli.Command{
			serveCommand(),
			sweepCommand(),
			importCommand(),
			tokenCommand(),
			initCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  config.CmdServe,
		Usage: config.CmdDescServe,
		Action: func(c *cli.Context) error {
			settings, err := config.LoadSettings(c.String(config.FlagConfig))
			if err != nil {
				return err
			}
			return runServe(c.Context, settings)
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  config.CmdSweep,
		Usage: config.CmdDescSweep,
		Action: func(c *cli.Context) error {
			settings, err := config.LoadSettings(c.String(config.FlagConfig))
			if err != nil {
				return err
			}

			d, err := openDeps(c.Context, settings, true)
			if err != nil {
				return err
			}
			defer d.close()

			sent, err := d.sweeper().RunSweepNow(c.Context)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.App.Writer, config.MsgSweepOutput, sent)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  config.CmdImport,
		Usage: config.CmdDescImport,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: config.FlagOwner, Usage: config.FlagDescOwner},
			&cli.StringFlag{Name: config.FlagFile, Usage: config.FlagDescFile},
			&cli.StringFlag{Name: config.FlagURL, Usage: config.FlagDescURL},
			&cli.StringFlag{Name: config.FlagUser, Usage: config.FlagDescUser},
			&cli.StringFlag{Name: config.FlagPassword, Usage: config.FlagDescPassword},
		},
		Action: func(c *cli.Context) error {
			owner := c.Int64(config.FlagOwner)
			if owner == 0 {
				return errors.New(config.ErrOwnerRequired)
			}

			src := engine.ImportSource{
				Path: c.String(config.FlagFile),
				URL:  c.String(config.FlagURL),
				User: c.String(config.FlagUser),
				Pass: c.String(config.FlagPassword),
			}
			if src.URL != "" && src.Pass == "" {
				src.Pass = config.LookupPassword(src.User)
			}

			settings, err := config.LoadSettings(c.String(config.FlagConfig))
			if err != nil {
				return err
			}

			rc, err := src.Open(c.Context, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()

			records, err := engine.ImportVCards(c.Context, rc, owner)
			if err != nil {
				return err
			}

			st, err := store.Open(c.Context, settings.Database.Driver, settings.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			imported := 0
			for _, rec := range records {
				if _, err := st.Add(c.Context, rec); err != nil {
					return err
				}
				imported++
			}

			_, _ = fmt.Fprintf(c.App.Writer, config.MsgImportOutput, imported)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      config.CmdToken,
		Usage:     config.CmdDescToken,
		ArgsUsage: "[token]",
		Action: func(c *cli.Context) error {
			token := c.Args().First()
			if token == "" {
				_, _ = fmt.Fprint(c.App.Writer, config.MsgTokenPrompt)
				line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
				if err != nil && line == "" {
					return errors.New(config.ErrTokenEmpty)
				}
				token = line
			}

			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New(config.ErrTokenEmpty)
			}

			if err := config.StoreToken(token); err != nil {
				return err
			}
			_, _ = fmt.Fprint(c.App.Writer, config.MsgTokenSaved)
			return nil
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  config.CmdInit,
		Usage: config.CmdDescInit,
		Action: func(c *cli.Context) error {
			path := c.String(config.FlagConfig)

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s: %s", config.ErrSettingsExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%s: %w", config.ErrSettingsRead, err)
			}

			if err := config.Save(path, config.DefaultSettings()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.App.Writer, config.MsgInitOutput, path)
			return nil
		},
	}
}
