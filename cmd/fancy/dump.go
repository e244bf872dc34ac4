package main

import (
	"encoding/hex"

	"github.com/musikid/fancy"
	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/urfave/cli/v2"
)

var dumpCmd = cli.Command{
	Name:  "dump",
	Usage: "print the ec register space",
	Action: func(c *cli.Context) error {
		h, err := openDevice(c)
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()
		buf := make([]byte, fancy.RegisterSpace)
		err = h.ReadRegister(c.Context, 0, buf)
		if err != nil {
			return console.ExitErr(err)
		}
		console.Print(hex.Dump(buf))
		return nil
	},
}
