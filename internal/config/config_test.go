package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sensor_hats.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, KindSenseHat, cfg.Device.Kind)
	require.Equal(t, time.Minute, cfg.IO.Freq)
	l, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, l)
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, `
[device]
kind = "enviro"
rotation = 180
progress = false
sleep = "90s"
serial_port = "/dev/ttyAMA0"

[io]
freq = "2m"
uploads = 3

[mqtt]
broker = "tcp://broker:1883"

[log]
level = "debug"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, KindEnviro, cfg.Device.Kind)
	require.Equal(t, 180, cfg.Device.Rotation)
	require.False(t, cfg.Device.Progress)
	require.Equal(t, 90*time.Second, cfg.Device.Sleep)
	require.Equal(t, "/dev/ttyAMA0", cfg.Device.SerialPort)
	require.Equal(t, 2*time.Minute, cfg.IO.Freq)
	require.Equal(t, 3, cfg.IO.Uploads)
	require.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)

	// untouched keys keep their defaults
	require.Equal(t, time.Second, cfg.IO.Wait)
	require.Equal(t, "sensorhats/readings", cfg.MQTT.TopicReadings)
	require.Equal(t, 21, cfg.Device.TopBar)

	l, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, l)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, `
[device]
kind = "sensehat"
colour = "red"
`)
	_, err := Load(p)
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "device.colour")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"kind":        func(c *Config) { c.Device.Kind = "unicorn" },
		"rotation":    func(c *Config) { c.Device.Rotation = 45 },
		"display":     func(c *Config) { c.Device.DisplayMin, c.Device.DisplayMax = 3, 1 },
		"temp unit":   func(c *Config) { c.Device.TempUnit = "R" },
		"panel":       func(c *Config) { c.Device.Panel = "crt" },
		"wait":        func(c *Config) { c.IO.Wait = 0 },
		"freq":        func(c *Config) { c.IO.Freq = -time.Second },
		"uploads":     func(c *Config) { c.IO.Uploads = -1 },
		"history":     func(c *Config) { c.IO.History = 4 },
		"broker":      func(c *Config) { c.MQTT.Broker = "" },
		"qos":         func(c *Config) { c.MQTT.QoS = 3 },
		"log level":   func(c *Config) { c.Log.Level = "loud" },
		"negative xy": func(c *Config) { c.Device.TopX = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.MQTT.Broker = ""
	cfg.MQTT.Disabled = true
	require.NoError(t, cfg.Validate())
}

func TestModeRange(t *testing.T) {
	cfg := Default()
	lo, hi := cfg.ModeRange(5)
	require.Equal(t, 0, lo)
	require.Equal(t, 5, hi)

	cfg.Device.DisplayMin, cfg.Device.DisplayMax = 1, 3
	lo, hi = cfg.ModeRange(5)
	require.Equal(t, 1, lo)
	require.Equal(t, 3, hi)

	cfg.Device.DisplayMin, cfg.Device.DisplayMax = 4, 9
	lo, hi = cfg.ModeRange(2)
	require.Equal(t, 2, lo)
	require.Equal(t, 2, hi)
}

func TestExampleFileLoads(t *testing.T) {
	cfg, err := Load("../../sensor_hats.example.toml")
	require.NoError(t, err)
	require.Equal(t, KindEnviro, cfg.Device.Kind)
	require.Equal(t, 5*time.Minute, cfg.Device.Sleep)
	require.Equal(t, "/dev/ttyAMA0", cfg.Device.SerialPort)
	require.Equal(t, 60*time.Second, cfg.IO.Freq)
}
