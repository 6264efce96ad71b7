package sensors

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Lite-On LTR559 light and proximity sensor on the Enviro+.

const (
	ltr559Address      = 0x23
	ltr559ALSControl   = 0x80
	ltr559PSControl    = 0x81
	ltr559PSNPulses    = 0x83
	ltr559ALSMeasRate  = 0x85
	ltr559PartID       = 0x86
	ltr559ALSDataCh1   = 0x88 // ch1 lo, ch1 hi, ch0 lo, ch0 hi
	ltr559PSData       = 0x8d
	ltr559PartIDValue  = 0x92
	ltr559ALSActive    = 0x01 // active, gain 1x
	ltr559PSActive     = 0x03
	ltr559PSPulses     = 0x01
	ltr559ALSRate100ms = 0x03 // 100 ms integration, 500 ms repeat
)

var (
	ltr559Ch0Coeff = [4]float64{17743, 42785, 5926, 0}
	ltr559Ch1Coeff = [4]float64{-11059, 19548, -1185, 0}
)

// LTR559 reads ambient light and proximity.
type LTR559 struct {
	dev *i2c.Dev
}

// NewLTR559 checks the part ID and enables both sensors.
func NewLTR559(bus i2c.Bus) (*LTR559, error) {
	dev := &i2c.Dev{Bus: bus, Addr: ltr559Address}
	r := &regReader{dev: dev}
	if id := r.byte(ltr559PartID); r.err != nil {
		return nil, fmt.Errorf("ltr559: %w", r.err)
	} else if id != ltr559PartIDValue {
		return nil, fmt.Errorf("ltr559: unexpected part id 0x%02x", id)
	}
	for _, w := range [][2]byte{
		{ltr559ALSControl, ltr559ALSActive},
		{ltr559PSControl, ltr559PSActive},
		{ltr559PSNPulses, ltr559PSPulses},
		{ltr559ALSMeasRate, ltr559ALSRate100ms},
	} {
		if err := writeReg(dev, w[0], w[1]); err != nil {
			return nil, fmt.Errorf("ltr559: init: %w", err)
		}
	}
	return &LTR559{dev: dev}, nil
}

// Proximity returns the raw 11-bit proximity count; larger is closer.
func (s *LTR559) Proximity() (float64, error) {
	var b [2]byte
	if err := s.dev.Tx([]byte{ltr559PSData}, b[:]); err != nil {
		return 0, fmt.Errorf("ltr559: read proximity: %w", err)
	}
	return float64(binary.LittleEndian.Uint16(b[:]) & 0x07ff), nil
}

// Lux returns the ambient light level.
func (s *LTR559) Lux() (float64, error) {
	var b [4]byte
	if err := s.dev.Tx([]byte{ltr559ALSDataCh1}, b[:]); err != nil {
		return 0, fmt.Errorf("ltr559: read als: %w", err)
	}
	ch1 := float64(binary.LittleEndian.Uint16(b[0:2]))
	ch0 := float64(binary.LittleEndian.Uint16(b[2:4]))
	return ltr559Lux(ch0, ch1), nil
}

// ltr559Lux applies the datasheet lux formula at gain 1x and 100 ms
// integration.
func ltr559Lux(ch0, ch1 float64) float64 {
	if ch0+ch1 == 0 {
		return 0
	}
	ratio := ch1 / (ch0 + ch1)
	idx := 3
	switch {
	case ratio < 0.45:
		idx = 0
	case ratio < 0.64:
		idx = 1
	case ratio < 0.85:
		idx = 2
	}
	lux := (ch0*ltr559Ch0Coeff[idx] - ch1*ltr559Ch1Coeff[idx]) / 10000
	if lux < 0 {
		return 0
	}
	return lux
}
