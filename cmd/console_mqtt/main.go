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
		Name:    "console_mqtt",
		Usage:   "print the readings and frames published over MQTT",
		Version: app.Version,
		Flags:   app.ViewerFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := app.LoadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := app.Connect(ctx, cfg, "console")
			if err != nil {
				return err
			}
			defer client.Disconnect()

			return app.RunConsoleMQTT(ctx, cfg, client, os.Stdout)
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
