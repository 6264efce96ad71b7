// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

const bme280Address = 0x76

// envSensor is the part of *bmxx80.Dev the climate reader uses.
type envSensor interface {
	Sense(e *physic.Env) error
	Halt() error
}

// BME280 reads the Enviro+ climate sensor. One measurement is shared by the
// three getters for up to maxAge so a poll costs a single bus transaction.
type BME280 struct {
	dev    envSensor
	maxAge time.Duration

	mu     sync.Mutex
	cached time.Time
	env    physic.Env
}

// NewBME280 opens the BME280 on bus at 0x76.
func NewBME280(bus i2c.Bus) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, bme280Address, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bme280: init: %w", err)
	}
	return newBME280(dev), nil
}

func newBME280(dev envSensor) *BME280 {
	return &BME280{dev: dev, maxAge: 500 * time.Millisecond}
}

// Sense returns a fresh or cached reading.
func (b *BME280) Sense() (physic.Env, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cached.IsZero() && time.Since(b.cached) < b.maxAge {
		return b.env, nil
	}
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return physic.Env{}, fmt.Errorf("bme280: sense: %w", err)
	}
	b.env = e
	b.cached = time.Now()
	return e, nil
}

// Temperature returns the temperature in °C.
func (b *BME280) Temperature() (float64, error) {
	e, err := b.Sense()
	if err != nil {
		return 0, err
	}
	return e.Temperature.Celsius(), nil
}

// Pressure returns the pressure in hPa.
func (b *BME280) Pressure() (float64, error) {
	e, err := b.Sense()
	if err != nil {
		return 0, err
	}
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return pressurePa / 100.0, nil // 1 hPa = 100 Pa
}

// Humidity returns relative humidity in %.
func (b *BME280) Humidity() (float64, error) {
	e, err := b.Sense()
	if err != nil {
		return 0, err
	}
	return float64(e.Humidity) / float64(physic.PercentRH), nil
}

// Close halts the sensor.
func (b *BME280) Close() error {
	return b.dev.Halt()
}
