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
	addr := &cli.StringFlag{Name: "addr", Usage: "listen on `ADDR` instead of web.addr"}
	cliApp := &cli.App{
		Name:    "web",
		Usage:   "web viewer for the readings and frames published over MQTT",
		Version: app.Version,
		Flags:   append(app.ViewerFlags(), addr),
		Action: func(c *cli.Context) error {
			cfg, err := app.LoadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet(addr.Name) {
				cfg.Web.Addr = c.String(addr.Name)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := app.Connect(ctx, cfg, "web")
			if err != nil {
				return err
			}
			defer client.Disconnect()

			slog.Info("starting web viewer (MQTT subscriber)", "version", app.Version)
			return app.RunWeb(ctx, cfg, client)
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
