package series

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesAppendEvictsOldest(t *testing.T) {
	s := New("Temperature", "C", 3)
	require.Equal(t, 0, s.Len())
	require.Equal(t, 3, s.Cap())

	s.Append(1)
	s.Append(2)
	require.Equal(t, []float64{1, 2}, s.Values())

	s.Append(3)
	s.Append(4)
	s.Append(5)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []float64{3, 4, 5}, s.Values())

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, 5.0, last)
}

func TestSeriesPrefillKeepsStartUntilEvicted(t *testing.T) {
	const maxLen = 100
	d := NewSenseData(0, maxLen)

	d.Temperature.Append(100)
	d.Pressure.Append(200)
	d.Humidity.Append(300)

	for _, s := range []*Series{d.Temperature, d.Pressure, d.Humidity} {
		require.Equal(t, maxLen, s.Len())
		require.Equal(t, 0.0, s.Values()[0])
	}
	last, _ := d.Pressure.Last()
	require.Equal(t, 200.0, last)
}

func TestSeriesMissing(t *testing.T) {
	s := New("Speed", "km/h", 4)
	s.Append(3)
	s.AppendMissing()

	_, ok := s.Last()
	require.False(t, ok)
	require.True(t, math.IsNaN(s.Values()[1]))

	sn := s.Snapshot()
	require.Len(t, sn.Data, 2)
	require.NotNil(t, sn.Data[0])
	require.Nil(t, sn.Data[1])
	require.Nil(t, sn.Latest())

	_, err := json.Marshal(sn)
	require.NoError(t, err)
}

func TestSeriesMinMaxSkipsInvalid(t *testing.T) {
	s := New("Pcnt", "%", 5).WithRange(0, 100)
	s.Append(5)
	s.Append(150)
	s.AppendMissing()
	s.Append(50)

	r, ok := s.MinMax()
	require.True(t, ok)
	require.Equal(t, Range{Min: 5, Max: 50}, r)

	_, ok = New("empty", "", 2).MinMax()
	require.False(t, ok)
}

func TestLimitsComplete(t *testing.T) {
	vals, ok := NewLimits(4, 18, 25, 35).Complete()
	require.True(t, ok)
	require.Equal(t, []float64{4, 18, 25, 35}, vals)

	_, ok = Limits{nil, nil, nil, nil}.Complete()
	require.False(t, ok)

	partial := NewLimits(1, 2, 3, 4)
	partial[2] = nil
	_, ok = partial.Complete()
	require.False(t, ok)

	_, ok = Limits(nil).Complete()
	require.False(t, ok)
}

func TestTemperatureUnits(t *testing.T) {
	d := NewSenseData(0, 10)
	d.Temperature.Append(100)

	snaps := d.Snapshots(UnitFahrenheit)
	require.Equal(t, 212.0, *snaps[0].Latest())
	require.Equal(t, UnitFahrenheit, snaps[0].Unit)

	snaps = d.Snapshots(UnitKelvin)
	require.InDelta(t, 373.15, *snaps[0].Latest(), 1e-9)

	snaps = d.Snapshots(UnitCelsius)
	require.Equal(t, 100.0, *snaps[0].Latest())
	require.Equal(t, "Temperature", snaps[0].Label)

	// the source series is not modified by conversion
	last, _ := d.Temperature.Last()
	require.Equal(t, 100.0, last)
	require.Equal(t, UnitCelsius, d.Temperature.Unit)
	require.Equal(t, UnitKelvin, InUnit(d.Temperature, UnitKelvin).Unit)
}

func TestDemoDataLabels(t *testing.T) {
	d := NewDemoData(8)
	snaps := d.Snapshots()
	require.Equal(t, "Demo speed", snaps[0].Label)
	require.Equal(t, "Demo pcnt", snaps[1].Label)

	_, ok := d.Speed.Limits.Complete()
	require.False(t, ok)
	_, ok = d.Percent.Limits.Complete()
	require.True(t, ok)
}
