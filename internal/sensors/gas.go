package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// MICS6814 gas sensor read through an ADS1015 on the Enviro+.

const (
	gasADCAddress    = 0x49
	gasSupplyVolts   = 3.3
	gasLoadOhms      = 56000
	gasADCFullScale  = 4096 * physic.MilliVolt
	gasADCSampleRate = 1600 * physic.Hertz
)

// adcChannel is the part of an ADC pin the gas reader uses.
type adcChannel interface {
	Read() (analog.Sample, error)
}

// GasSensor reads the three MICS6814 channels.
type GasSensor struct {
	oxidising, reducing, nh3 adcChannel
	heater                   gpio.PinOut
}

// NewGasSensor opens the ADS1015 on bus and switches the heater on when
// heater is not nil.
func NewGasSensor(bus i2c.Bus, heater gpio.PinOut) (*GasSensor, error) {
	adc, err := ads1x15.NewADS1015(bus, &ads1x15.Opts{I2cAddress: gasADCAddress})
	if err != nil {
		return nil, fmt.Errorf("gas: ads1015 init: %w", err)
	}
	var chans [3]adcChannel
	for i, c := range []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2} {
		pin, err := adc.PinForChannel(c, gasADCFullScale, gasADCSampleRate, ads1x15.BestQuality)
		if err != nil {
			return nil, fmt.Errorf("gas: channel %d: %w", i, err)
		}
		chans[i] = pin
	}
	return newGasSensor(chans[0], chans[1], chans[2], heater)
}

func newGasSensor(ox, red, nh3 adcChannel, heater gpio.PinOut) (*GasSensor, error) {
	if heater != nil {
		if err := heater.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("gas: heater on: %w", err)
		}
	}
	return &GasSensor{oxidising: ox, reducing: red, nh3: nh3, heater: heater}, nil
}

// ReadGas returns the sensing resistance of each channel in Ohms.
func (g *GasSensor) ReadGas() (GasReading, error) {
	ox, err := readResistance(g.oxidising)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas: oxidising: %w", err)
	}
	red, err := readResistance(g.reducing)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas: reducing: %w", err)
	}
	nh3, err := readResistance(g.nh3)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas: nh3: %w", err)
	}
	return GasReading{Oxidising: ox, Reducing: red, NH3: nh3}, nil
}

// Close switches the heater off.
func (g *GasSensor) Close() error {
	if g.heater == nil {
		return nil
	}
	return g.heater.Out(gpio.Low)
}

func readResistance(c adcChannel) (float64, error) {
	s, err := c.Read()
	if err != nil {
		return 0, err
	}
	return GasResistance(float64(s.V) / float64(physic.Volt)), nil
}

// GasResistance converts a divider voltage into the sensing resistance.
// Voltages at or above the supply rail are clamped just below it.
func GasResistance(v float64) float64 {
	if v >= gasSupplyVolts {
		v = gasSupplyVolts - 0.0001
	}
	if v < 0 {
		v = 0
	}
	return v * gasLoadOhms / (gasSupplyVolts - v)
}
