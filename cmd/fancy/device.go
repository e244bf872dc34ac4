package main

import (
	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/config"
	"github.com/musikid/fancy/ecdev"
	"github.com/musikid/fancy/ecram"
	"github.com/musikid/fancy/nbfc"
	"github.com/urfave/cli/v2"
)

func accessMode(c *cli.Context) (ecdev.AccessMode, error) {
	mode, err := ecdev.ParseAccessMode(c.String("mode"))
	if err != nil {
		return ecdev.Either, console.Exit(2, "%s", console.Red(err))
	}
	return mode, nil
}

// openDevice opens the ec, or a zeroed memory bank in dry-run mode.
func openDevice(c *cli.Context) (*ecdev.Handle, error) {
	if c.Bool("dry-run") {
		console.Debug("dry run, writing to memory")
		return ecdev.New(ecram.New()), nil
	}
	mode, err := accessMode(c)
	if err != nil {
		return nil, err
	}
	h, err := ecdev.Open(mode)
	if err != nil {
		return nil, console.ExitErr(err)
	}
	console.Debugf("opened %s (%s)", h.Path(), h.Mode())
	return h, nil
}

func loadProfile(c *cli.Context) (*nbfc.Profile, error) {
	name := c.String("profile")
	p, err := nbfc.Load(c.String("config-dir"), name)
	if err != nil {
		return nil, console.ExitErr(err)
	}
	return p, nil
}

func configStore(c *cli.Context) *config.Store {
	return config.NewStore(config.WithPath(c.String("config")))
}

var profileFlag = &cli.StringFlag{
	Name:     "profile",
	Aliases:  []string{"p"},
	Usage:    "fan control profile name",
	Required: true,
}
