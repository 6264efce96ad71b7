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
)

func main() {
	cliApp := &cli.App{
		Name:    "mirror",
		Usage:   "show the frames published by another board on this board's display",
		Version: app.Version,
		Flags:   append(app.ViewerFlags(), app.SimulateFlag),
		Action: func(c *cli.Context) error {
			cfg, err := app.LoadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			panel, err := app.OpenPanel(cfg)
			if err != nil {
				return err
			}
			defer panel.Close()

			client, err := app.Connect(ctx, cfg, "mirror")
			if err != nil {
				return err
			}
			defer client.Disconnect()

			return app.RunMirror(ctx, cfg, client, panel)
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
