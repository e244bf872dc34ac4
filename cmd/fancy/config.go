package main

import (
	"errors"
	"os"

	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/config"
	"github.com/musikid/fancy/service"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "manage the service configuration",
	Subcommands: cli.Commands{
		&configShowCmd,
		&configSelectCmd,
		&configTargetCmd,
		&configAutoCmd,
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the service configuration, migrating nbfc settings if needed",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "legacy", Usage: "nbfc service settings", Value: config.DefaultLegacyPath},
	},
	Action: func(c *cli.Context) error {
		store := config.NewStore(config.WithPath(c.String("config")), config.WithLegacyPath(c.String("legacy")))
		cfg, err := store.Load()
		if err != nil {
			return console.ExitErr(err)
		}
		enc := yaml.NewEncoder(os.Stdout)
		err = enc.Encode(cfg)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	},
}

func startService(c *cli.Context, store *config.Store, cfg *config.ServiceConfig) (*service.Service, error) {
	if c.IsSet("mode") {
		mode, err := accessMode(c)
		if err != nil {
			return nil, err
		}
		cfg.AccessMode = mode
	}
	opts := []service.Option{
		service.WithProfilesDir(c.String("config-dir")),
		service.WithStore(store),
	}
	if c.Bool("dry-run") {
		h, err := openDevice(c)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithDevice(h))
	}
	svc, err := service.Start(c.Context, cfg, opts...)
	if err != nil {
		return nil, console.ExitErr(err)
	}
	return svc, nil
}

// withService runs fn on a service started from the stored configuration
// and releases the device afterwards, keeping what fn wrote.
func withService(c *cli.Context, fn func(svc *service.Service) error) error {
	store := configStore(c)
	cfg, err := store.Load()
	if errors.Is(err, config.ErrNoConfig) {
		cfg = &config.ServiceConfig{Auto: true}
		err = nil
	}
	if err != nil {
		return console.ExitErr(err)
	}
	svc, err := startService(c, store, cfg)
	if err != nil {
		return err
	}
	err = fn(svc)
	closeErr := svc.Release()
	if err != nil {
		return console.ExitErr(err)
	}
	if closeErr != nil {
		return console.ExitErr(closeErr)
	}
	return nil
}

var configSelectCmd = cli.Command{
	Name:      "select",
	Usage:     "select the fan control profile",
	ArgsUsage: "<profile>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(2, "expected one profile name")
		}
		return withService(c, func(svc *service.Service) error {
			return svc.SelectProfile(c.Context, c.Args().First())
		})
	},
}

var configTargetCmd = cli.Command{
	Name:  "target",
	Usage: "store the target speed of a fan",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "fan", Aliases: []string{"f"}, Usage: "fan index"},
		&cli.Float64Flag{Name: "percent", Usage: "fan speed in percent", Required: true},
	},
	Action: func(c *cli.Context) error {
		return withService(c, func(svc *service.Service) error {
			return svc.SetTargetSpeed(c.Context, c.Int("fan"), c.Float64("percent"))
		})
	},
}

var configAutoCmd = cli.Command{
	Name:      "auto",
	Usage:     "leave fan speeds to the ec firmware",
	ArgsUsage: "on|off",
	Action: func(c *cli.Context) error {
		var auto bool
		switch c.Args().First() {
		case "on":
			auto = true
		case "off":
		default:
			return console.Exit(2, "expected on or off")
		}
		return withService(c, func(svc *service.Service) error {
			return svc.SetAuto(c.Context, auto)
		})
	},
}
