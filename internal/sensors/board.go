// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"sort"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Enviro+ GPIO lines.
const (
	gasHeaterPin = "GPIO24"
	pmsEnablePin = "GPIO22"
	pmsResetPin  = "GPIO27"
)

// BoardOpts selects the buses a board is wired to.
type BoardOpts struct {
	I2CBus     string // "" picks the first bus
	SerialPort string // PMS5003 UART; "" skips the particulate sensor
	StrictCPU  bool   // fail instead of falling back when vcgencmd is missing
}

// OpenEnviro initializes the Enviro+ sensors.
func OpenEnviro(o BoardOpts) (*Suite, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(o.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("enviro: i2c open %q: %w", o.I2CBus, err)
	}
	s := &Suite{}
	s.track(bus)

	fail := func(err error) (*Suite, error) {
		_ = s.Close()
		return nil, err
	}

	bme, err := NewBME280(bus)
	if err != nil {
		return fail(err)
	}
	s.track(bme)
	s.Climate = bme

	ltr, err := NewLTR559(bus)
	if err != nil {
		return fail(err)
	}
	s.Light = ltr
	s.dumps = append(s.dumps, registerDump{"ltr559", ltr.dev, LTR559Registers()})

	gas, err := NewGasSensor(bus, gpioreg.ByName(gasHeaterPin))
	if err != nil {
		return fail(err)
	}
	s.track(gas)
	s.Gas = gas

	if o.SerialPort != "" {
		if en := gpioreg.ByName(pmsEnablePin); en != nil {
			if err := en.Out(gpio.High); err != nil {
				return fail(fmt.Errorf("pms5003: enable: %w", err))
			}
		}
		pms, err := OpenPMS5003(o.SerialPort, gpioreg.ByName(pmsResetPin))
		if err != nil {
			return fail(err)
		}
		s.track(pms)
		s.Particles = pms
	}

	s.Thermal = NewCPUTemp(bme, o.StrictCPU)
	return s, nil
}

// OpenSenseHat initializes the Sense HAT climate sensors.
func OpenSenseHat(o BoardOpts) (*Suite, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(o.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("sensehat: i2c open %q: %w", o.I2CBus, err)
	}
	s, err := newSenseHatSuite(bus, o)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	s.track(bus)
	return s, nil
}

func newSenseHatSuite(bus i2c.Bus, o BoardOpts) (*Suite, error) {
	hts, err := NewHTS221(bus)
	if err != nil {
		return nil, err
	}
	lps, err := NewLPS25H(bus)
	if err != nil {
		return nil, err
	}
	climate := senseHatClimate{hts: hts, lps: lps}
	return &Suite{
		Climate: climate,
		Thermal: NewCPUTemp(climate, o.StrictCPU),
		dumps: []registerDump{
			{"hts221", hts.dev, HTS221Registers()},
			{"lps25h", lps.dev, LPS25HRegisters()},
		},
	}, nil
}

type registerDump struct {
	chip string
	dev  *i2c.Dev
	regs []RegisterInfo
}

// DumpRegisters returns a register dump per register-level chip on the
// board, keyed by chip name.
func (s *Suite) DumpRegisters() (map[string]string, error) {
	out := make(map[string]string, len(s.dumps))
	for _, d := range s.dumps {
		text, err := DumpRegisters(d.dev, d.regs)
		if err != nil {
			return out, fmt.Errorf("%s: %w", d.chip, err)
		}
		out[d.chip] = text
	}
	return out, nil
}

// Chips lists the chips DumpRegisters covers, sorted.
func (s *Suite) Chips() []string {
	names := make([]string, 0, len(s.dumps))
	for _, d := range s.dumps {
		names = append(names, d.chip)
	}
	sort.Strings(names)
	return names
}
