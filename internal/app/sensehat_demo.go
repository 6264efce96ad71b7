package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/hat"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// Sense HAT demo display modes.
const (
	DemoSparkle = iota
	DemoSpeed
	DemoPercent
	DemoTemperature
	DemoPressure
	DemoHumidity

	DemoLastMode = DemoHumidity
)

// DemoSource produces one random speed and percentage sample.
type DemoSource interface {
	Demo() (speed, percent float64)
}

type senseHatDemo struct {
	dev      hat.Device
	demo     DemoSource
	climate  sensors.Climate
	data     *series.DemoData
	sense    *series.SenseData
	tempUnit string
}

func newSenseHatDemo(cfg *config.Config, dev hat.Device, demo DemoSource, climate sensors.Climate) *senseHatDemo {
	return &senseHatDemo{
		dev:      dev,
		demo:     demo,
		climate:  climate,
		data:     series.NewDemoData(cfg.IO.History),
		sense:    series.NewSenseData(math.NaN(), cfg.IO.History),
		tempUnit: cfg.Device.TempUnit,
	}
}

func (d *senseHatDemo) collect(_ context.Context, _ time.Time) error {
	speed, pct := d.demo.Demo()
	d.data.Speed.Append(speed)
	d.data.Percent.Append(pct)
	if d.climate == nil {
		return nil
	}
	return appendClimate(d.climate, d.sense)
}

func (d *senseHatDemo) render(mode int) error {
	switch mode {
	case DemoSpeed:
		return graph(d.dev, d.data.Speed)
	case DemoPercent:
		return graph(d.dev, d.data.Percent)
	case DemoTemperature:
		return graph(d.dev, series.InUnit(d.sense.Temperature, d.tempUnit))
	case DemoPressure:
		return graph(d.dev, d.sense.Pressure)
	case DemoHumidity:
		return graph(d.dev, d.sense.Humidity)
	default:
		return d.dev.DisplaySparkle()
	}
}

func (d *senseHatDemo) snapshots() []series.Snapshot {
	out := d.data.Snapshots()
	if d.climate != nil {
		out = append(out, d.sense.Snapshots(d.tempUnit)[:3]...)
	}
	return out
}

// appendClimate reads temperature, pressure and humidity into data. A
// failed read is stored as a missing sample.
func appendClimate(c sensors.Climate, data *series.SenseData) error {
	var errs []error
	for _, r := range []struct {
		s    *series.Series
		read func() (float64, error)
	}{
		{data.Temperature, c.Temperature},
		{data.Pressure, c.Pressure},
		{data.Humidity, c.Humidity},
	} {
		v, err := r.read()
		if err != nil {
			r.s.AppendMissing()
			errs = append(errs, fmt.Errorf("%s: %w", r.s.Label, err))
			continue
		}
		r.s.Append(v)
	}
	return errors.Join(errs...)
}

// RunSenseHatDemo runs the Sense HAT demo until ctx is done or the
// configured number of uploads has been published.
func RunSenseHatDemo(ctx context.Context, cfg *config.Config, b *Board, pub mqtt.Publisher) error {
	var demo DemoSource = sensors.NewMock(sensors.SenseHatRanges, uint64(time.Now().UnixNano()))
	if b.Mock != nil {
		demo = b.Mock
	}
	app := newSenseHatDemo(cfg, b.Device, demo, b.Sensors.Climate)

	if sh, ok := b.Device.(*hat.SenseHat); ok && b.Joystick != nil {
		go sh.Listen(ctx, b.Joystick.Events(ctx))
	}
	if err := b.Device.UpdateSleepMode(cfg.Device.NoLED); err != nil {
		return err
	}
	if err := b.Device.DisplayMessage("SH Demo"); err != nil {
		return err
	}
	return newLoop(cfg, b.Device, pub, app, config.KindSenseHat).run(ctx)
}
