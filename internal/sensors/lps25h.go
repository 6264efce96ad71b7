package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// ST LPS25H pressure and temperature sensor on the Sense HAT.

const (
	lps25hAddress     = 0x5c
	lps25hCtrlReg1    = 0x20
	lps25hInitData    = 0x94 // PD=1, ODR=1 Hz, BDU=1
	lps25hPressOutXL  = 0x28
	lps25hPressOutL   = 0x29
	lps25hPressOutH   = 0x2a
	lps25hTempOutLReg = 0x2b
	lps25hTempOutHReg = 0x2c
	lps25hPressPerHPa = 4096
	lps25hTempPerDegC = 480
	lps25hTempOffsetC = 42.5
)

// LPS25H reads barometric pressure and temperature.
type LPS25H struct {
	dev *i2c.Dev
}

// NewLPS25H powers the sensor up.
func NewLPS25H(bus i2c.Bus) (*LPS25H, error) {
	dev := &i2c.Dev{Bus: bus, Addr: lps25hAddress}
	if err := writeReg(dev, lps25hCtrlReg1, lps25hInitData); err != nil {
		return nil, fmt.Errorf("lps25h: init: %w", err)
	}
	return &LPS25H{dev: dev}, nil
}

// Data returns pressure (hPa) and temperature (°C).
func (s *LPS25H) Data() (pressure, temperature float64, err error) {
	r := &regReader{dev: s.dev}
	pressure = float64(r.signed(lps25hPressOutH, lps25hPressOutL, lps25hPressOutXL)) / lps25hPressPerHPa
	temperature = float64(r.signed(lps25hTempOutHReg, lps25hTempOutLReg))/lps25hTempPerDegC + lps25hTempOffsetC
	if r.err != nil {
		return 0, 0, fmt.Errorf("lps25h: read data: %w", r.err)
	}
	return pressure, temperature, nil
}

// Pressure returns the pressure in hPa.
func (s *LPS25H) Pressure() (float64, error) {
	p, _, err := s.Data()
	return p, err
}

// Temperature returns the temperature in °C.
func (s *LPS25H) Temperature() (float64, error) {
	_, t, err := s.Data()
	return t, err
}

// senseHatClimate combines the two Sense HAT climate chips. Temperature
// comes from the humidity sensor, which sits further from the SoC.
type senseHatClimate struct {
	hts *HTS221
	lps *LPS25H
}

func (c senseHatClimate) Temperature() (float64, error) { return c.hts.Temperature() }
func (c senseHatClimate) Humidity() (float64, error)    { return c.hts.Humidity() }
func (c senseHatClimate) Pressure() (float64, error)    { return c.lps.Pressure() }
