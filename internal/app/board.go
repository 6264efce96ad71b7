// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/hat"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
)

// Board is an opened HAT: its display device and its sensors.
type Board struct {
	Device   hat.Device
	Sensors  *sensors.Suite
	Joystick *sensors.Joystick // nil when there is no stick
	Mock     *sensors.Mock     // set when simulating
	Memory   *display.Memory   // set when simulating
}

// Close releases the display, the joystick and the sensors.
func (b *Board) Close() error {
	var errs []error
	if b.Device != nil {
		errs = append(errs, b.Device.Close())
	}
	if b.Joystick != nil {
		errs = append(errs, b.Joystick.Close())
	}
	if b.Sensors != nil {
		errs = append(errs, b.Sensors.Close())
	}
	return errors.Join(errs...)
}

func settings(cfg *config.Config, lastMode int) hat.Settings {
	lo, hi := cfg.ModeRange(lastMode)
	return hat.Settings{
		Rotation:  cfg.Device.Rotation,
		Mode:      cfg.Device.Display,
		ModeMin:   lo,
		ModeMax:   hi,
		Progress:  cfg.Device.Progress,
		SleepTime: cfg.Device.Sleep,
		LowLight:  cfg.Device.LowLight,
	}
}

func layout(cfg *config.Config) hat.Layout {
	return hat.Layout{TopBar: cfg.Device.TopBar, TopX: cfg.Device.TopX, TopY: cfg.Device.TopY}
}

// SimulatedBoard builds a board of the configured kind on the Mock sensors
// and an in-memory panel.
func SimulatedBoard(cfg *config.Config, lastMode int, seed uint64) (*Board, error) {
	b := &Board{}
	var err error
	switch cfg.Device.Kind {
	case config.KindEnviro:
		b.Mock = sensors.NewMock(sensors.EnviroRanges, seed)
		b.Memory = display.NewMemory(160, 80)
		b.Device, err = hat.NewEnviro(b.Memory, settings(cfg, lastMode), layout(cfg))
	default:
		b.Mock = sensors.NewMock(sensors.SenseHatRanges, seed)
		b.Memory = display.NewMemory(8, 8)
		b.Device, err = hat.NewSenseHat(b.Memory, settings(cfg, lastMode))
	}
	if err != nil {
		return nil, err
	}
	b.Sensors = sensors.MockSuite(b.Mock)
	if cfg.Device.Kind != config.KindEnviro {
		// the Sense HAT has no light, gas or particle sensors
		b.Sensors.Light, b.Sensors.Gas, b.Sensors.Particles = nil, nil, nil
	}
	return b, nil
}

// OpenBoard opens the configured hardware, or the simulator when
// device.simulate is set.
func OpenBoard(cfg *config.Config, lastMode int) (*Board, error) {
	if cfg.Device.Simulate {
		return SimulatedBoard(cfg, lastMode, uint64(time.Now().UnixNano()))
	}
	log := slog.Default().With("component", "board")
	opts := sensors.BoardOpts{
		I2CBus:     cfg.Device.I2CBus,
		SerialPort: cfg.Device.SerialPort,
		StrictCPU:  cfg.Device.StrictCPU,
	}
	b := &Board{}
	fail := func(err error) (*Board, error) {
		_ = b.Close()
		return nil, err
	}

	switch cfg.Device.Kind {
	case config.KindEnviro:
		s, err := sensors.OpenEnviro(opts)
		if err != nil {
			return nil, err
		}
		b.Sensors = s
		panel, err := openEnviroPanel(cfg)
		if err != nil {
			return fail(err)
		}
		dev, err := hat.NewEnviro(panel, settings(cfg, lastMode), layout(cfg))
		if err != nil {
			_ = panel.Close()
			return fail(err)
		}
		b.Device = dev
	default:
		s, err := sensors.OpenSenseHat(opts)
		if err != nil {
			return nil, err
		}
		b.Sensors = s
		led, err := display.OpenLEDMatrix()
		if err != nil {
			return fail(err)
		}
		dev, err := hat.NewSenseHat(led, settings(cfg, lastMode))
		if err != nil {
			_ = led.Close()
			return fail(err)
		}
		b.Device = dev
		js, err := sensors.OpenJoystick()
		if err != nil {
			log.Warn("joystick unavailable", "err", err)
		} else {
			b.Joystick = js
		}
	}
	log.Info("board ready", "kind", cfg.Device.Kind, "panel", b.Device.Panel().String())
	return b, nil
}

// busPanel closes the bus a panel was opened on together with the panel.
type busPanel struct {
	display.Panel
	bus io.Closer
}

func (p busPanel) Close() error {
	return errors.Join(p.Panel.Close(), p.bus.Close())
}

func openEnviroPanel(cfg *config.Config) (display.Panel, error) {
	if cfg.Device.Panel == config.PanelOLED {
		bus, err := i2creg.Open(cfg.Device.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("oled: i2c open %q: %w", cfg.Device.I2CBus, err)
		}
		oled, err := display.NewOLED(bus)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		return busPanel{Panel: oled, bus: bus}, nil
	}
	return display.OpenST7735(display.ST7735Opts{SPIDevice: cfg.Device.SPIPort, Rotation: cfg.Device.Rotation})
}

// OpenPanel opens only the display of the configured board, or an
// in-memory panel of the same size when simulating.
func OpenPanel(cfg *config.Config) (display.Panel, error) {
	if cfg.Device.Simulate {
		if cfg.Device.Kind == config.KindEnviro {
			return display.NewMemory(160, 80), nil
		}
		return display.NewMemory(8, 8), nil
	}
	if cfg.Device.Kind == config.KindEnviro {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		return openEnviroPanel(cfg)
	}
	return display.OpenLEDMatrix()
}
