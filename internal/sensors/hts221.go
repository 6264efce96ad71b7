package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// ST HTS221 humidity and temperature sensor on the Sense HAT.

const (
	hts221Address     = 0x5f
	hts221CtrlReg1    = 0x20
	hts221InitData    = 0x85 // PD=1, BDU=1, ODR=1 Hz
	hts221HumOutLReg  = 0x28
	hts221HumOutHReg  = 0x29
	hts221TempOutLReg = 0x2a
	hts221TempOutHReg = 0x2b
	hts221H0rHx2Reg   = 0x30
	hts221H1rHx2Reg   = 0x31
	hts221T0degCx8Reg = 0x32
	hts221T1degCx8Reg = 0x33
	hts221T1T0msbReg  = 0x35
	hts221H0T0OutL    = 0x36
	hts221H0T0OutH    = 0x37
	hts221H1T0OutL    = 0x3a
	hts221H1T0OutH    = 0x3b
	hts221T0OutL      = 0x3c
	hts221T0OutH      = 0x3d
	hts221T1OutL      = 0x3e
	hts221T1OutH      = 0x3f
)

// HTS221 reads calibrated humidity and temperature.
type HTS221 struct {
	dev *i2c.Dev

	h0rH, t0degC   float64
	h0t0Out, t0Out float64
	hSlope, tSlope float64
}

// NewHTS221 powers the sensor up and reads its factory calibration.
func NewHTS221(bus i2c.Bus) (*HTS221, error) {
	dev := &i2c.Dev{Bus: bus, Addr: hts221Address}
	if err := writeReg(dev, hts221CtrlReg1, hts221InitData); err != nil {
		return nil, fmt.Errorf("hts221: init: %w", err)
	}

	r := &regReader{dev: dev}
	h0rH := float64(r.byte(hts221H0rHx2Reg)) / 2
	h1rH := float64(r.byte(hts221H1rHx2Reg)) / 2
	t0 := uint16(r.byte(hts221T0degCx8Reg))
	t1 := uint16(r.byte(hts221T1degCx8Reg))
	msb := uint16(r.byte(hts221T1T0msbReg))
	t0 |= (msb & 0x3) << 8
	t1 |= (msb & 0xc) << 6

	s := &HTS221{
		dev:     dev,
		h0rH:    h0rH,
		t0degC:  float64(t0) / 8,
		h0t0Out: float64(r.signed(hts221H0T0OutH, hts221H0T0OutL)),
		t0Out:   float64(r.signed(hts221T0OutH, hts221T0OutL)),
	}
	h1t0Out := float64(r.signed(hts221H1T0OutH, hts221H1T0OutL))
	t1Out := float64(r.signed(hts221T1OutH, hts221T1OutL))
	if r.err != nil {
		return nil, fmt.Errorf("hts221: read calibration: %w", r.err)
	}
	if h1t0Out == s.h0t0Out || t1Out == s.t0Out {
		return nil, fmt.Errorf("hts221: invalid calibration data")
	}

	s.hSlope = (h1rH - h0rH) / (h1t0Out - s.h0t0Out)
	s.tSlope = (float64(t1)/8 - s.t0degC) / (t1Out - s.t0Out)
	return s, nil
}

// Data returns relative humidity (%) and temperature (°C).
func (s *HTS221) Data() (humidity, temperature float64, err error) {
	r := &regReader{dev: s.dev}
	rawH := float64(r.signed(hts221HumOutHReg, hts221HumOutLReg))
	rawT := float64(r.signed(hts221TempOutHReg, hts221TempOutLReg))
	if r.err != nil {
		return 0, 0, fmt.Errorf("hts221: read data: %w", r.err)
	}
	humidity = (rawH-s.h0t0Out)*s.hSlope + s.h0rH
	temperature = (rawT-s.t0Out)*s.tSlope + s.t0degC
	return humidity, temperature, nil
}

// Humidity returns relative humidity in %.
func (s *HTS221) Humidity() (float64, error) {
	h, _, err := s.Data()
	return h, err
}

// Temperature returns the temperature in °C.
func (s *HTS221) Temperature() (float64, error) {
	_, t, err := s.Data()
	return t, err
}
