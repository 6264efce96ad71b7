// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/sensor_hats/internal/app"
	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
)

func main() {
	every := &cli.DurationFlag{Name: "every", Usage: "dump again every `INTERVAL` and highlight changes"}
	cliApp := &cli.App{
		Name:    "register_debug",
		Usage:   "dump the registers of the board's I2C sensors",
		Version: app.Version,
		Flags:   append(app.ViewerFlags(), every),
		Action: func(c *cli.Context) error {
			cfg, err := app.LoadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := sensors.BoardOpts{I2CBus: cfg.Device.I2CBus}
			open := sensors.OpenSenseHat
			if cfg.Device.Kind == config.KindEnviro {
				open = sensors.OpenEnviro
			}
			suite, err := open(opts)
			if err != nil {
				return err
			}
			defer suite.Close()

			slog.Info("dumping registers", "kind", cfg.Device.Kind, "chips", suite.Chips())
			return app.RunRegisterDebug(ctx, suite, os.Stdout, c.Duration(every.Name))
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
