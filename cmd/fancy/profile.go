package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/nbfc"
	"github.com/urfave/cli/v2"
)

var profileCmd = cli.Command{
	Name:  "profile",
	Usage: "inspect fan control profiles",
	Subcommands: cli.Commands{
		&profileListCmd,
		&profileCheckCmd,
	},
}

var profileListCmd = cli.Command{
	Name:  "list",
	Usage: "list the profiles of the config directory",
	Action: func(c *cli.Context) error {
		dir := c.String("config-dir")
		names, err := nbfc.List(dir)
		if err != nil {
			return console.ExitErr(err)
		}
		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "NAME\tFANS\tWORDS\tSTATUS\n")
		for _, name := range names {
			p, err := nbfc.Load(dir, name)
			if err != nil {
				console.Debugf("%s: %v", name, err)
				_, _ = fmt.Fprintf(w, "%s\t-\t-\t%s\n", name, console.Red("invalid"))
				continue
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", name, len(p.Fans), p.ReadWriteWords, console.Green("ok"))
		}
		_ = w.Flush()
		return nil
	},
}

var profileCheckCmd = cli.Command{
	Name:      "check",
	Usage:     "validate a profile file",
	ArgsUsage: "<file.xml>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(2, "expected one profile file")
		}
		p, err := nbfc.LoadFile(c.Args().First())
		if err != nil {
			return console.ExitErr(err)
		}
		console.PInfof(console.PictoNotebook, "%s by %s", console.Bold(p.NotebookModel), p.Author)
		for i, fan := range p.Fans {
			console.Printf("  fan %d %s: write register %#04x, speed values %d-%d\n",
				i, console.White(fan.DisplayName), fan.WriteRegister, fan.MinSpeedValue, fan.MaxSpeedValue)
		}
		for _, reg := range p.RegisterWrites {
			console.Printf("  register %#04x = %d %s\n", reg.Register, reg.Value, console.Cyan(reg.Occasion))
		}
		return nil
	},
}
