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
)

func main() {
	cliApp := &cli.App{
		Name:    "enviro_monitor",
		Usage:   "Enviro+ monitor: climate, light, gas and particulate readings on the LCD, published to MQTT",
		Version: app.Version,
		UsageText: "enviro_monitor [--config <file>] [--log debug|info|warn|error] [--simulate] [--noLED] [--progress] [--uploads N]" +
			"\n\nTap the proximity sensor to change the display mode.",
		Flags: app.MonitorFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := app.LoadConfig(c)
			if err != nil {
				return err
			}
			cfg.Device.Kind = config.KindEnviro

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			board, err := app.OpenBoard(cfg, app.EnviroLastMode)
			if err != nil {
				return err
			}
			defer func() {
				if err := board.Close(); err != nil {
					slog.Warn("closing board", "err", err)
				}
			}()

			pub, disconnect, err := app.Publisher(ctx, cfg, "enviro")
			if err != nil {
				return err
			}
			defer disconnect()

			slog.Info("starting Enviro+ monitor", "version", app.Version, "simulate", cfg.Device.Simulate)
			return app.RunEnviroMonitor(ctx, cfg, board, pub)
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
