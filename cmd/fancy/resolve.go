package main

import (
	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/ecdev"
	"github.com/urfave/cli/v2"
)

var resolveCmd = cli.Command{
	Name:  "resolve",
	Usage: "print the ec device path of the access mode",
	Action: func(c *cli.Context) error {
		mode, err := accessMode(c)
		if err != nil {
			return err
		}
		path, err := ecdev.Resolve(mode)
		if err != nil {
			return console.ExitErr(err)
		}
		resolved, err := ecdev.ModeFromPath(path)
		if err != nil {
			return console.ExitErr(err)
		}
		console.PInfof(console.PictoPin, "%s %s", console.White(path), console.Cyan(resolved))
		err = ecdev.Writable(path)
		if err != nil {
			console.Warnf("%v", err)
			return nil
		}
		console.PInfof(console.PictoKey, "%s", console.Green("writable"))
		return nil
	},
}
