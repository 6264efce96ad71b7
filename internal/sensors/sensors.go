// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads the Enviro+ and Sense HAT sensors.
//
// Each capability is a small interface so the application loops can run
// against real hardware or the Mock simulator without knowing which.
package sensors

import (
	"errors"
	"io"
)

// Climate reads temperature (°C), pressure (hPa) and relative humidity (%).
type Climate interface {
	Temperature() (float64, error)
	Pressure() (float64, error)
	Humidity() (float64, error)
}

// Light reads proximity (raw counts) and illuminance (lux).
type Light interface {
	Proximity() (float64, error)
	Lux() (float64, error)
}

// GasReading holds the MICS6814 sensing resistances in Ohms.
type GasReading struct {
	Oxidising float64 `json:"oxidising"`
	Reducing  float64 `json:"reducing"`
	NH3       float64 `json:"nh3"`
}

// Gas reads the analog gas sensor.
type Gas interface {
	ReadGas() (GasReading, error)
}

// ParticleReading holds particulate concentrations in µg/m³.
type ParticleReading struct {
	PM1  float64 `json:"pm1"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
}

// Particles reads the particulate sensor.
type Particles interface {
	ReadParticles() (ParticleReading, error)
}

// Thermal reads the SoC temperature in °C.
type Thermal interface {
	CPUTemperature() (float64, error)
}

var (
	// ErrParticleTimeout is returned when the particulate sensor stays
	// silent after a reset.
	ErrParticleTimeout = errors.New("pms5003: read timeout")
	// ErrChecksum is returned for a particulate frame with a bad checksum.
	ErrChecksum = errors.New("pms5003: checksum mismatch")
	// ErrNotSupported is returned by a Suite for a capability its board lacks.
	ErrNotSupported = errors.New("sensors: not supported on this board")
)

// Suite bundles the sensors of one board. Capabilities a board does not
// have are nil.
type Suite struct {
	Climate   Climate
	Light     Light
	Gas       Gas
	Particles Particles
	Thermal   Thermal

	closers []io.Closer
	dumps   []registerDump
}

// Close releases buses and ports opened for the suite.
func (s *Suite) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Suite) track(c io.Closer) {
	s.closers = append(s.closers, c)
}
