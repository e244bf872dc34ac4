package main

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/config"
	"github.com/musikid/fancy/service"
	oklog "github.com/oklog/run"
	"github.com/urfave/cli/v2"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "apply the service configuration until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "reapply",
			Usage: "write the target speeds again at this interval, 0 to disable",
		},
	},
	Action: func(c *cli.Context) error {
		store := configStore(c)
		cfg, err := store.Load()
		if errors.Is(err, config.ErrNoConfig) {
			return console.Exit(1, "no configuration at %s, select a profile first", store.Path())
		}
		if err != nil {
			return console.ExitErr(err)
		}
		svc, err := startService(c, store, cfg)
		if err != nil {
			return err
		}
		status := svc.Status()
		console.PInfof(console.PictoFan, "%s on %s, auto %t, targets %v",
			console.White(status.Profile), console.Cyan(status.AccessMode), status.Auto, status.TargetFanSpeeds)

		var g oklog.Group
		g.Add(oklog.SignalHandler(c.Context, syscall.SIGINT, syscall.SIGTERM))
		if interval := c.Duration("reapply"); interval > 0 {
			ctx, cancel := context.WithCancel(c.Context)
			g.Add(func() error {
				return reapply(ctx, svc, interval)
			}, func(error) {
				cancel()
			})
		}
		err = g.Run()
		var sigErr oklog.SignalError
		if err != nil && !errors.As(err, &sigErr) {
			console.Error(err.Error())
		}
		err = svc.Close(c.Context)
		if err != nil {
			return console.ExitErr(err)
		}
		console.PInfof(console.PictoFinish, "fans handed back to the ec")
		return nil
	},
}

func reapply(ctx context.Context, svc *service.Service, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			err := svc.Reapply(ctx)
			if err != nil {
				return err
			}
		}
	}
}
