package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/config"
	"github.com/urfave/cli/v2"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := cli.NewApp()
	app.Name = "fancy"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "embedded controller fan control"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "service configuration file",
			Value: config.DefaultPath,
		},
		&cli.StringFlag{
			Name:  "config-dir",
			Usage: "directory holding the fan control profiles",
			Value: config.DefaultProfilesDir,
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "ec access mode (either, raw_port, acpi_ec, ec_sys)",
			Value: "either",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "write to an in-memory register bank instead of the ec",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		ctx.Context = console.SetVerbose(ctx.Context, ctx.Bool("verbose"))
		return nil
	}
	app.Commands = cli.Commands{
		&resolveCmd,
		&profileCmd,
		&applyCmd,
		&setCmd,
		&resetCmd,
		&dumpCmd,
		&runCmd,
		&configCmd,
	}
	// exit codes are returned by run instead of calling os.Exit
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(args)
	if err != nil {
		console.Error(err.Error())
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}
