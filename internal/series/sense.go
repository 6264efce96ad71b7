package series

import "math"

// Temperature units.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
	UnitKelvin     = "K"
)

// CelsiusToFahrenheit converts c to °F.
func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32.0 }

// CelsiusToKelvin converts c to K.
func CelsiusToKelvin(c float64) float64 { return c + 273.15 }

// InUnit returns a temperature series (stored in °C) converted to unit.
// Unknown units return s unchanged.
func InUnit(s *Series, unit string) *Series {
	var c *Series
	switch unit {
	case UnitFahrenheit:
		c = s.Map(CelsiusToFahrenheit)
	case UnitKelvin:
		c = s.Map(CelsiusToKelvin)
	default:
		return s
	}
	c.Unit = unit
	return c
}

// SenseData holds the climate and light series common to both boards.
//
// The limits are example values only: for temperature, [4,18,25,35] means
// below 4 is dangerously low, 4..18 low, 18..25 normal, 25..35 high and
// above 35 dangerously high.
type SenseData struct {
	Temperature *Series
	Pressure    *Series
	Humidity    *Series
	Light       *Series
}

// NewSenseData returns full-size series pre-filled with fill.
func NewSenseData(fill float64, capacity int) *SenseData {
	return &SenseData{
		Temperature: New("Temperature", UnitCelsius, capacity).WithLimits(NewLimits(4, 18, 25, 35)).Prefill(fill),
		Pressure:    New("Pressure", "hPa", capacity).WithLimits(NewLimits(250, 650, 1013.25, 1015)).Prefill(fill),
		Humidity:    New("Humidity", "%", capacity).WithLimits(NewLimits(20, 30, 60, 70)).Prefill(fill),
		Light:       New("Light", "Lux", capacity).WithLimits(NewLimits(-1, -1, 30000, 100000)).Prefill(fill),
	}
}

// Snapshots returns every series, with temperature converted to tempUnit.
func (d *SenseData) Snapshots(tempUnit string) []Snapshot {
	return []Snapshot{
		InUnit(d.Temperature, tempUnit).Snapshot(),
		d.Pressure.Snapshot(),
		d.Humidity.Snapshot(),
		d.Light.Snapshot(),
	}
}

// EnviroData adds the Enviro+ gas and particulate series.
type EnviroData struct {
	*SenseData
	Oxidising *Series
	Reducing  *Series
	NH3       *Series
	PM1       *Series
	PM25      *Series
	PM10      *Series
}

// NewEnviroData returns full-size series pre-filled with fill.
func NewEnviroData(fill float64, capacity int) *EnviroData {
	return &EnviroData{
		SenseData: NewSenseData(fill, capacity),
		Oxidising: New("Oxidising", "kO", capacity).WithLimits(NewLimits(-1, -1, 40, 50)).Prefill(fill),
		Reducing:  New("Reducing", "kO", capacity).WithLimits(NewLimits(-1, -1, 450, 550)).Prefill(fill),
		NH3:       New("NH3", "kO", capacity).WithLimits(NewLimits(-1, -1, 200, 300)).Prefill(fill),
		PM1:       New("PM1", "ug/m3", capacity).WithLimits(NewLimits(-1, -1, 50, 100)).Prefill(fill),
		PM25:      New("PM2.5", "ug/m3", capacity).WithLimits(NewLimits(-1, -1, 50, 100)).Prefill(fill),
		PM10:      New("PM10", "ug/m3", capacity).WithLimits(NewLimits(-1, -1, 50, 100)).Prefill(fill),
	}
}

// Snapshots returns every series, with temperature converted to tempUnit.
func (d *EnviroData) Snapshots(tempUnit string) []Snapshot {
	return append(d.SenseData.Snapshots(tempUnit),
		d.Oxidising.Snapshot(),
		d.Reducing.Snapshot(),
		d.NH3.Snapshot(),
		d.PM1.Snapshot(),
		d.PM25.Snapshot(),
		d.PM10.Snapshot(),
	)
}

// DemoData is random data used by the demo application.
type DemoData struct {
	Speed   *Series
	Percent *Series
}

// NewDemoData returns full-size series pre-filled with missing samples.
func NewDemoData(capacity int) *DemoData {
	return &DemoData{
		Speed:   New("Demo Speed", "km/h", capacity).WithRange(1, 200).WithLimits(Limits{nil, nil, nil, nil}).Prefill(math.NaN()),
		Percent: New("Demo Pcnt", "%", capacity).WithRange(0, 100).WithLimits(NewLimits(10, 30, 70, 90)).Prefill(math.NaN()),
	}
}

// Snapshots returns both demo series.
func (d *DemoData) Snapshots() []Snapshot {
	return []Snapshot{d.Speed.Snapshot(), d.Percent.Snapshot()}
}
