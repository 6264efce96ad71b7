// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/relabs-tech/sensor_hats/internal/series"
)

// MockRanges bounds the values the simulator produces.
type MockRanges struct {
	Temperature series.Range
	Pressure    series.Range
	Humidity    series.Range
	Lux         series.Range
	Proximity   series.Range
	Gas         series.Range
	Particles   series.Range
	CPU         series.Range
	Speed       series.Range
	Percent     series.Range
}

// EnviroRanges are the data sheet limits of the Enviro+ sensors.
var EnviroRanges = MockRanges{
	Temperature: series.Range{Min: -40, Max: 85},
	Pressure:    series.Range{Min: 300, Max: 1100},
	Humidity:    series.Range{Min: 0, Max: 100},
	Lux:         series.Range{Min: 0.01, Max: 64000},
	Proximity:   series.Range{Min: 1500, Max: 1501},
	Gas:         series.Range{Min: 10000, Max: 24000},
	Particles:   series.Range{Min: 0.3, Max: 10.1},
	CPU:         series.Range{Min: 40, Max: 80},
	Speed:       series.Range{Min: 1, Max: 200},
	Percent:     series.Range{Min: 0, Max: 100},
}

// SenseHatRanges are the data sheet limits of the Sense HAT sensors.
var SenseHatRanges = MockRanges{
	Temperature: series.Range{Min: 0, Max: 65},
	Pressure:    series.Range{Min: 260, Max: 1260},
	Humidity:    series.Range{Min: 0, Max: 100},
	CPU:         series.Range{Min: 40, Max: 80},
	Speed:       series.Range{Min: 1, Max: 200},
	Percent:     series.Range{Min: 0, Max: 100},
}

// Mock simulates every sensor capability with uniformly random values
// inside Ranges. It never fails.
type Mock struct {
	Ranges MockRanges

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock returns a simulator seeded with seed.
func NewMock(ranges MockRanges, seed uint64) *Mock {
	return &Mock{Ranges: ranges, rng: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

// MockSuite returns a Suite whose capabilities are all backed by m.
func MockSuite(m *Mock) *Suite {
	return &Suite{Climate: m, Light: m, Gas: m, Particles: m, Thermal: m}
}

func (m *Mock) uniform(r series.Range) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.Min + m.rng.Float64()*(r.Max-r.Min)
}

func (m *Mock) Temperature() (float64, error) { return m.uniform(m.Ranges.Temperature), nil }
func (m *Mock) Pressure() (float64, error)    { return m.uniform(m.Ranges.Pressure), nil }
func (m *Mock) Humidity() (float64, error)    { return m.uniform(m.Ranges.Humidity), nil }
func (m *Mock) Lux() (float64, error)         { return m.uniform(m.Ranges.Lux), nil }

// Proximity returns whole counts, like the LTR559.
func (m *Mock) Proximity() (float64, error) { return math.Round(m.uniform(m.Ranges.Proximity)), nil }

func (m *Mock) CPUTemperature() (float64, error) { return m.uniform(m.Ranges.CPU), nil }

func (m *Mock) ReadGas() (GasReading, error) {
	return GasReading{
		Oxidising: m.uniform(m.Ranges.Gas),
		Reducing:  m.uniform(m.Ranges.Gas),
		NH3:       m.uniform(m.Ranges.Gas),
	}, nil
}

func (m *Mock) ReadParticles() (ParticleReading, error) {
	return ParticleReading{
		PM1:  m.uniform(m.Ranges.Particles),
		PM25: m.uniform(m.Ranges.Particles),
		PM10: m.uniform(m.Ranges.Particles),
	}, nil
}

// Demo returns one random speed (km/h) and percentage sample for the demo
// application.
func (m *Mock) Demo() (speed, percent float64) {
	return m.uniform(m.Ranges.Speed), m.uniform(m.Ranges.Percent)
}
