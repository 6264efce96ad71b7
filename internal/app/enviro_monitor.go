package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/hat"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// Enviro+ monitor display modes.
const (
	EnviroSparkle = iota
	EnviroTemperature
	EnviroPressure
	EnviroHumidity
	EnviroLight
	EnviroText

	EnviroLastMode = EnviroText
)

// A proximity reading above proxLimit is a tap on the sensor. Taps closer
// together than proxDebounce count once.
const (
	proxLimit    = 1500
	proxDebounce = 500 * time.Millisecond
)

type enviroMonitor struct {
	dev      hat.Device
	sensors  *sensors.Suite
	data     *series.EnviroData
	tempUnit string
	compen   float64
	lastTap  time.Time
	log      *slog.Logger
}

func newEnviroMonitor(cfg *config.Config, dev hat.Device, s *sensors.Suite) *enviroMonitor {
	return &enviroMonitor{
		dev:      dev,
		sensors:  s,
		data:     series.NewEnviroData(math.NaN(), cfg.IO.History),
		tempUnit: cfg.Device.TempUnit,
		compen:   cfg.Device.TempCompFactor,
		log:      slog.Default().With("component", config.KindEnviro),
	}
}

func (m *enviroMonitor) collect(_ context.Context, now time.Time) error {
	var errs []error
	add := func(s *series.Series, v float64, err error) {
		if err != nil {
			s.AppendMissing()
			errs = append(errs, fmt.Errorf("%s: %w", s.Label, err))
			return
		}
		s.Append(v)
	}

	if c := m.sensors.Climate; c != nil {
		t, err := c.Temperature()
		if err == nil && m.compen > 0 && m.sensors.Thermal != nil {
			if cpu, cerr := m.sensors.Thermal.CPUTemperature(); cerr == nil {
				t = sensors.Compensate(t, cpu, m.compen)
			}
		}
		add(m.data.Temperature, t, err)
		p, err := c.Pressure()
		add(m.data.Pressure, p, err)
		h, err := c.Humidity()
		add(m.data.Humidity, h, err)
	}

	if l := m.sensors.Light; l != nil {
		lux, err := l.Lux()
		add(m.data.Light, lux, err)
		if prox, err := l.Proximity(); err == nil {
			m.tap(now, prox)
		}
	} else {
		m.data.Light.AppendMissing()
	}

	if g := m.sensors.Gas; g != nil {
		r, err := g.ReadGas()
		add(m.data.Oxidising, r.Oxidising/1000, err)
		add(m.data.Reducing, r.Reducing/1000, err)
		add(m.data.NH3, r.NH3/1000, err)
	} else {
		m.data.Oxidising.AppendMissing()
		m.data.Reducing.AppendMissing()
		m.data.NH3.AppendMissing()
	}

	if p := m.sensors.Particles; p != nil {
		r, err := p.ReadParticles()
		add(m.data.PM1, r.PM1, err)
		add(m.data.PM25, r.PM25, err)
		add(m.data.PM10, r.PM10, err)
	} else {
		m.data.PM1.AppendMissing()
		m.data.PM25.AppendMissing()
		m.data.PM10.AppendMissing()
	}
	return errors.Join(errs...)
}

// tap advances the display mode and wakes the display when the proximity
// sensor is touched.
func (m *enviroMonitor) tap(now time.Time, prox float64) {
	if prox <= proxLimit || now.Sub(m.lastTap) <= proxDebounce {
		return
	}
	m.lastTap = now
	m.dev.Touch()
	m.dev.UpdateDisplayMode(1)
	if m.dev.Sleeping() {
		if err := m.dev.UpdateSleepMode(false); err != nil {
			m.log.Warn("wake", "err", err)
		}
	}
}

func (m *enviroMonitor) render(mode int) error {
	switch mode {
	case EnviroTemperature:
		return graph(m.dev, series.InUnit(m.data.Temperature, m.tempUnit))
	case EnviroPressure:
		return graph(m.dev, m.data.Pressure)
	case EnviroHumidity:
		return graph(m.dev, m.data.Humidity)
	case EnviroLight:
		return graph(m.dev, m.data.Light)
	case EnviroText:
		return m.dev.DisplayAsText(m.overview())
	default:
		return m.dev.DisplaySparkle()
	}
}

func (m *enviroMonitor) overview() []*series.Series {
	d := m.data
	temp := series.InUnit(d.Temperature, m.tempUnit)
	return []*series.Series{temp, d.Pressure, d.Humidity, d.Light, d.Oxidising, d.Reducing, d.NH3, d.PM1, d.PM25, d.PM10}
}

func (m *enviroMonitor) snapshots() []series.Snapshot {
	return m.data.Snapshots(m.tempUnit)
}

// RunEnviroMonitor runs the Enviro+ monitor until ctx is done or the
// configured number of uploads has been published.
func RunEnviroMonitor(ctx context.Context, cfg *config.Config, b *Board, pub mqtt.Publisher) error {
	app := newEnviroMonitor(cfg, b.Device, b.Sensors)
	if err := b.Device.UpdateSleepMode(cfg.Device.NoLED); err != nil {
		return err
	}
	if err := b.Device.DisplayMessage("Enviro+ Monitor"); err != nil {
		return err
	}
	return newLoop(cfg, b.Device, pub, app, config.KindEnviro).run(ctx)
}
