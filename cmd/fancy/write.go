package main

import (
	"strconv"

	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/ecwrite"
	"github.com/urfave/cli/v2"
)

// armWriter opens the device and runs the initialization sequence of the
// selected profile.
func armWriter(c *cli.Context) (*ecwrite.Writer, func(), error) {
	p, err := loadProfile(c)
	if err != nil {
		return nil, nil, err
	}
	h, err := openDevice(c)
	if err != nil {
		return nil, nil, err
	}
	closeDevice := func() {
		if err := h.Close(); err != nil {
			console.Warnf("%v", err)
		}
	}
	w := ecwrite.New(h)
	err = w.RefreshProfile(c.Context, p)
	if err != nil {
		closeDevice()
		return nil, nil, console.ExitErr(err)
	}
	return w, closeDevice, nil
}

var applyCmd = cli.Command{
	Name:  "apply",
	Usage: "write the initialization registers of a profile",
	Flags: []cli.Flag{profileFlag},
	Action: func(c *cli.Context) error {
		_, closeDevice, err := armWriter(c)
		if err != nil {
			return err
		}
		defer closeDevice()
		console.PInfof(console.PictoFinish, "profile %s applied", console.White(c.String("profile")))
		return nil
	},
}

var setCmd = cli.Command{
	Name:  "set",
	Usage: "set the speed of a fan",
	Flags: []cli.Flag{
		profileFlag,
		&cli.IntFlag{Name: "fan", Aliases: []string{"f"}, Usage: "fan index"},
		&cli.Float64Flag{Name: "percent", Usage: "fan speed in percent", Required: true},
	},
	Action: func(c *cli.Context) error {
		w, closeDevice, err := armWriter(c)
		if err != nil {
			return err
		}
		defer closeDevice()
		fan := c.Int("fan")
		if fan < 0 || fan >= w.FanCount() {
			return console.Exit(2, "fan index %d out of range, profile has %d fans", fan, w.FanCount())
		}
		percent := c.Float64("percent")
		if console.IsVerbose(c.Context) {
			raw, err := w.RawValue(fan, percent)
			if err == nil {
				console.Debugf("raw value %d (words: %t)", raw, w.WriteWords())
			}
		}
		err = w.WriteSpeedPercent(c.Context, fan, percent)
		if err != nil {
			return console.ExitErr(err)
		}
		console.PInfof(console.PictoFan, "fan %s set to %s%%", console.White(fan), console.White(strconv.FormatFloat(percent, 'f', -1, 64)))
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "hand the fans back to the ec firmware",
	Flags: []cli.Flag{
		profileFlag,
		&cli.BoolFlag{Name: "all", Usage: "reset every register with a reset value"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		all := c.Bool("all")
		if all && !c.Bool("yes") {
			answer, err := console.YesOrNo("reset every register, including those not requiring it?")
			if err != nil {
				return console.ExitErr(err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		w, closeDevice, err := armWriter(c)
		if err != nil {
			return err
		}
		defer closeDevice()
		err = w.Reset(c.Context, all)
		if err != nil {
			return console.ExitErr(err)
		}
		console.PInfof(console.PictoFinish, "registers reset")
		return nil
	},
}
