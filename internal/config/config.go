// Package config loads the TOML configuration shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("config: invalid")

// Board kinds.
const (
	KindSenseHat = "sensehat"
	KindEnviro   = "enviro"
)

// Enviro+ display panels.
const (
	PanelLCD  = "lcd"
	PanelOLED = "oled"
)

// Config holds all application configuration values.
type Config struct {
	Device DeviceConfig `toml:"device"`
	IO     IOConfig     `toml:"io"`
	MQTT   MQTTConfig   `toml:"mqtt"`
	Web    WebConfig    `toml:"web"`
	Log    LogConfig    `toml:"log"`
}

// DeviceConfig selects the board and its display behaviour.
type DeviceConfig struct {
	Kind     string `toml:"kind"`     // sensehat or enviro
	Simulate bool   `toml:"simulate"` // random readings, in-memory display
	NoLED    bool   `toml:"no_led"`   // never switch the display on

	Rotation   int  `toml:"rotation"` // 0, 90, 180 or 270
	Display    int  `toml:"display"`  // initial display mode
	DisplayMin int  `toml:"display_min"`
	DisplayMax int  `toml:"display_max"` // 0 selects every mode the application has
	Progress   bool `toml:"progress"`
	LowLight   bool `toml:"low_light"`

	// Sleep switches the display off after this long without joystick or
	// proximity activity. 0 never sleeps.
	Sleep time.Duration `toml:"sleep"`

	TempUnit string `toml:"temp_unit"` // C, F or K

	// TempCompFactor corrects the Enviro+ BME280 for CPU heat; 0 disables it.
	TempCompFactor float64 `toml:"temp_comp_factor"`

	// Enviro+ header layout in pixels.
	TopBar int `toml:"top_bar"`
	TopX   int `toml:"top_x"`
	TopY   int `toml:"top_y"`

	Panel      string `toml:"panel"` // enviro display: lcd or oled
	I2CBus     string `toml:"i2c_bus"`
	SPIPort    string `toml:"spi_port"`
	SerialPort string `toml:"serial_port"` // PMS5003 UART, empty disables it
	StrictCPU  bool   `toml:"strict_cpu"`
}

// IOConfig controls sampling and publishing.
type IOConfig struct {
	Wait     time.Duration `toml:"wait"`  // between samples
	Delay    time.Duration `toml:"delay"` // before the first publish
	Freq     time.Duration `toml:"freq"`  // between publishes
	Rounding int           `toml:"rounding"`
	Uploads  int           `toml:"uploads"` // stop after this many publishes, 0 runs forever
	History  int           `toml:"history"` // samples kept per series
}

// MQTTConfig holds the broker connection and topics.
type MQTTConfig struct {
	Broker        string `toml:"broker"`
	ClientID      string `toml:"client_id"`
	TopicReadings string `toml:"topic_readings"`
	TopicFrame    string `toml:"topic_frame"`
	QoS           byte   `toml:"qos"`
	Retain        bool   `toml:"retain"`
	Disabled      bool   `toml:"disabled"`
}

// WebConfig configures the web viewer.
type WebConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Kind:     KindSenseHat,
			Display:  1,
			Progress: true,
			Sleep:    5 * time.Minute,
			TempUnit: "C",
			TopBar:   21,
			TopX:     2,
			TopY:     2,
			Panel:    PanelLCD,

			TempCompFactor: 2.25,
		},
		IO: IOConfig{
			Wait:     time.Second,
			Delay:    10 * time.Second,
			Freq:     60 * time.Second,
			Rounding: 2,
			History:  160,
		},
		MQTT: MQTTConfig{
			Broker:        "tcp://localhost:1883",
			ClientID:      "sensor-hats",
			TopicReadings: "sensorhats/readings",
			TopicFrame:    "sensorhats/frame",
		},
		Web: WebConfig{Addr: ":8080"},
		Log: LogConfig{Level: "info"},
	}
}

// Load decodes the TOML file at path over the defaults and validates the
// result. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	d := c.Device
	switch d.Kind {
	case KindSenseHat, KindEnviro:
	default:
		bad("device.kind %q", d.Kind)
	}
	switch d.Rotation {
	case 0, 90, 180, 270:
	default:
		bad("device.rotation %d", d.Rotation)
	}
	if d.DisplayMin < 0 || (d.DisplayMax > 0 && d.DisplayMax < d.DisplayMin) {
		bad("device.display_min %d / display_max %d", d.DisplayMin, d.DisplayMax)
	}
	if d.Sleep < 0 {
		bad("device.sleep %s", d.Sleep)
	}
	switch d.TempUnit {
	case "C", "F", "K":
	default:
		bad("device.temp_unit %q", d.TempUnit)
	}
	switch d.Panel {
	case PanelLCD, PanelOLED:
	default:
		bad("device.panel %q", d.Panel)
	}
	if d.TempCompFactor < 0 {
		bad("device.temp_comp_factor %g", d.TempCompFactor)
	}
	if d.TopBar < 0 || d.TopX < 0 || d.TopY < 0 {
		bad("device.top_bar/top_x/top_y must not be negative")
	}

	io := c.IO
	if io.Wait <= 0 {
		bad("io.wait %s", io.Wait)
	}
	if io.Freq <= 0 {
		bad("io.freq %s", io.Freq)
	}
	if io.Delay < 0 {
		bad("io.delay %s", io.Delay)
	}
	if io.Rounding < 0 || io.Rounding > 6 {
		bad("io.rounding %d", io.Rounding)
	}
	if io.Uploads < 0 {
		bad("io.uploads %d", io.Uploads)
	}
	if io.History < 8 {
		bad("io.history %d is smaller than the LED matrix", io.History)
	}

	if !c.MQTT.Disabled && c.MQTT.Broker == "" {
		bad("mqtt.broker is empty")
	}
	if c.MQTT.QoS > 2 {
		bad("mqtt.qos %d", c.MQTT.QoS)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return l, nil
}

// ModeRange returns the display mode range, limited to the modes 0..last
// that the application offers.
func (c *Config) ModeRange(last int) (lo, hi int) {
	lo, hi = c.Device.DisplayMin, c.Device.DisplayMax
	if hi == 0 || hi > last {
		hi = last
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
