package env

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_hats/internal/series"
)

func TestNewSample(t *testing.T) {
	temp := series.New("temperature", "C", 4).WithLimits(series.NewLimits(4, 18, 25, 35))
	temp.Append(21.456)
	speed := series.New("Demo Speed", "km/h", 4).WithLimits(series.Limits{nil, nil, nil, nil})
	speed.Append(120)
	gap := series.New("Humidity", "%", 4)
	gap.Append(40)
	gap.Append(math.NaN())

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSample("enviro", "pi-1", at, 1, []series.Snapshot{temp.Snapshot(), speed.Snapshot(), gap.Snapshot()})
	require.Len(t, s.Readings, 3)

	r, ok := s.Get("Temperature")
	require.True(t, ok)
	require.InDelta(t, 21.5, *r.Value, 1e-9)
	require.Equal(t, 2, *r.Bucket)

	r, _ = s.Get("demo speed")
	require.Equal(t, 120.0, *r.Value)
	require.Nil(t, r.Bucket)

	r, _ = s.Get("Humidity")
	require.Nil(t, r.Value)

	_, ok = s.Get("Pressure")
	require.False(t, ok)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	require.Contains(t, string(b), `"value":null`)
	require.Contains(t, string(b), `"time":"2026-01-02T03:04:05Z"`)
}

func TestRound(t *testing.T) {
	require.Equal(t, 1.23, Round(1.2341, 2))
	require.Equal(t, 2.0, Round(1.5, 0))
	require.Equal(t, -0.1, Round(-0.06, 1))
}

func TestCPUSerial(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cpuinfo")
	require.NoError(t, os.WriteFile(p, []byte("processor\t: 0\nHardware\t: BCM2835\nSerial\t\t: 00000000a1b2c3d4\nModel\t: Raspberry Pi 4\n"), 0o600))
	require.Equal(t, "a1b2c3d4", cpuSerial(p))
	require.Empty(t, cpuSerial(filepath.Join(t.TempDir(), "missing")))
	require.NotEmpty(t, DeviceID("hat-"))
}
