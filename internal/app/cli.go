package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
)

// Flags shared by the binaries.
var (
	ConfigFlag = &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE`"}
	LogFlag    = &cli.StringFlag{Name: "log", Aliases: []string{"l"}, Usage: "`LEVEL` is one of debug|info|warn|error"}

	SimulateFlag = &cli.BoolFlag{Name: "simulate", Usage: "use random readings and an in-memory display"}
	NoLEDFlag    = &cli.BoolFlag{Name: "noLED", Usage: "keep the display off"}
	ProgressFlag = &cli.BoolFlag{Name: "progress", Usage: "show the time until the next upload"}
	UploadsFlag  = &cli.IntFlag{Name: "uploads", Usage: "stop after `N` uploads (0 runs forever)"}
)

// MonitorFlags are the flags of the monitor binaries.
func MonitorFlags() []cli.Flag {
	return []cli.Flag{ConfigFlag, LogFlag, SimulateFlag, NoLEDFlag, ProgressFlag, UploadsFlag}
}

// ViewerFlags are the flags of the MQTT subscribers.
func ViewerFlags() []cli.Flag {
	return []cli.Flag{ConfigFlag, LogFlag}
}

// LoadConfig reads --config (or the defaults), applies the flags that were
// given on the command line and installs the logger.
func LoadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	applyFlags(cfg, c)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
	return cfg, nil
}

func applyFlags(cfg *config.Config, c *cli.Context) {
	if c.IsSet(LogFlag.Name) {
		cfg.Log.Level = c.String(LogFlag.Name)
	}
	if c.IsSet(SimulateFlag.Name) {
		cfg.Device.Simulate = c.Bool(SimulateFlag.Name)
	}
	if c.IsSet(NoLEDFlag.Name) {
		cfg.Device.NoLED = c.Bool(NoLEDFlag.Name)
	}
	if c.IsSet(ProgressFlag.Name) {
		cfg.Device.Progress = c.Bool(ProgressFlag.Name)
	}
	if c.IsSet(UploadsFlag.Name) {
		cfg.IO.Uploads = c.Int(UploadsFlag.Name)
	}
}

// Publisher connects to the broker, or returns a publisher that drops
// everything when mqtt.disabled is set. The returned func disconnects.
func Publisher(ctx context.Context, cfg *config.Config, role string) (mqtt.Publisher, func(), error) {
	if cfg.MQTT.Disabled {
		slog.Warn("mqtt disabled, readings are not published")
		return mqtt.Discard{}, func() {}, nil
	}
	c, err := Connect(ctx, cfg, role)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Disconnect, nil
}

// Connect connects to the configured broker. role is appended to the
// client id so several binaries can share a broker.
func Connect(ctx context.Context, cfg *config.Config, role string) (*mqtt.Client, error) {
	if cfg.MQTT.Disabled {
		return nil, fmt.Errorf("%w: mqtt.disabled is set", config.ErrInvalid)
	}
	return mqtt.Connect(ctx, mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID + "-" + role,
	})
}
