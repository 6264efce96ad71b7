package sensors

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

// pmsFrame builds a valid 32-byte PMS5003 frame.
func pmsFrame(pm1, pm25, pm10 uint16) []byte {
	f := make([]byte, pmsFrameLen)
	f[0], f[1] = pmsStart1, pmsStart2
	binary.BigEndian.PutUint16(f[2:], pmsPayloadLen)
	binary.BigEndian.PutUint16(f[4:], pm1)
	binary.BigEndian.PutUint16(f[6:], pm25)
	binary.BigEndian.PutUint16(f[8:], pm10)
	var sum uint16
	for _, b := range f[:pmsFrameLen-2] {
		sum += uint16(b)
	}
	binary.BigEndian.PutUint16(f[pmsFrameLen-2:], sum)
	return f
}

// chunkPort serves one chunk per "session"; an exhausted chunk reads as
// io.EOF, which the driver treats as a timeout.
type chunkPort struct {
	chunks [][]byte
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		return 0, io.EOF
	}
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
		return 0, io.EOF
	}
	n := copy(b, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	return n, nil
}

func (p *chunkPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *chunkPort) Close() error                { return nil }

func newTestPMS(chunks ...[]byte) (*PMS5003, *gpiotest.Pin) {
	pin := &gpiotest.Pin{N: "GPIO27", Num: 27, L: gpio.High}
	p := NewPMS5003(&chunkPort{chunks: chunks}, pin)
	p.sleep = func(time.Duration) {}
	return p, pin
}

func TestPMS5003Read(t *testing.T) {
	noise := []byte{0x00, 0x42, 0x11, 0x42}
	p, _ := newTestPMS(append(noise, pmsFrame(3, 7, 12)...))

	r, err := p.ReadParticles()
	require.NoError(t, err)
	require.Equal(t, ParticleReading{PM1: 3, PM25: 7, PM10: 12}, r)
}

func TestPMS5003RetriesAfterReset(t *testing.T) {
	p, pin := newTestPMS([]byte{}, pmsFrame(1, 2, 3))

	r, err := p.ReadParticles()
	require.NoError(t, err)
	require.Equal(t, 2.0, r.PM25)
	require.Equal(t, gpio.High, pin.Read())
}

func TestPMS5003Timeout(t *testing.T) {
	p, _ := newTestPMS([]byte{}, []byte{})

	_, err := p.ReadParticles()
	require.ErrorIs(t, err, ErrParticleTimeout)

	// a truncated frame is a timeout too
	p, _ = newTestPMS(pmsFrame(1, 2, 3)[:20], []byte{})
	_, err = p.ReadParticles()
	require.ErrorIs(t, err, ErrParticleTimeout)
}

func TestPMS5003Checksum(t *testing.T) {
	f := pmsFrame(5, 5, 5)
	f[6]++
	p, _ := newTestPMS(f)

	_, err := p.ReadParticles()
	require.ErrorIs(t, err, ErrChecksum)
}

type fixedADC struct {
	v   physic.ElectricPotential
	err error
}

func (f fixedADC) Read() (analog.Sample, error) {
	return analog.Sample{V: f.v}, f.err
}

func TestGasSensor(t *testing.T) {
	heater := &gpiotest.Pin{N: "GPIO24", Num: 24}
	g, err := newGasSensor(
		fixedADC{v: 1650 * physic.MilliVolt},
		fixedADC{v: 1100 * physic.MilliVolt},
		fixedADC{v: 0},
		heater,
	)
	require.NoError(t, err)
	require.Equal(t, gpio.High, heater.Read())

	r, err := g.ReadGas()
	require.NoError(t, err)
	require.InDelta(t, 56000.0, r.Oxidising, 1e-6)
	require.InDelta(t, 28000.0, r.Reducing, 1e-6)
	require.Zero(t, r.NH3)

	require.NoError(t, g.Close())
	require.Equal(t, gpio.Low, heater.Read())

	g, err = newGasSensor(fixedADC{}, fixedADC{err: errors.New("bus")}, fixedADC{}, nil)
	require.NoError(t, err)
	_, err = g.ReadGas()
	require.ErrorContains(t, err, "reducing")
}

func TestGasResistanceClampsAtRail(t *testing.T) {
	r := GasResistance(5)
	require.False(t, r < 0)
	require.Greater(t, r, 1e8)
}

type fakeEnv struct {
	env   physic.Env
	calls int
}

func (f *fakeEnv) Sense(e *physic.Env) error {
	f.calls++
	*e = f.env
	return nil
}

func (f *fakeEnv) Halt() error { return nil }

func TestBME280SharesOneMeasurement(t *testing.T) {
	dev := &fakeEnv{env: physic.Env{
		Temperature: physic.ZeroCelsius + 25*physic.Celsius,
		Pressure:    101325 * physic.Pascal,
		Humidity:    45 * physic.PercentRH,
	}}
	b := newBME280(dev)
	b.maxAge = time.Hour

	temp, err := b.Temperature()
	require.NoError(t, err)
	require.InDelta(t, 25.0, temp, 1e-9)

	p, err := b.Pressure()
	require.NoError(t, err)
	require.InDelta(t, 1013.25, p, 1e-9)

	h, err := b.Humidity()
	require.NoError(t, err)
	require.InDelta(t, 45.0, h, 1e-9)

	require.Equal(t, 1, dev.calls)
}

func TestCPUTemp(t *testing.T) {
	c := NewCPUTemp(nil, true)
	c.run = func(context.Context) ([]byte, error) { return []byte("temp=48.3'C\n"), nil }
	v, err := c.CPUTemperature()
	require.NoError(t, err)
	require.Equal(t, 48.3, v)

	c.run = func(context.Context) ([]byte, error) { return []byte("garbage"), nil }
	_, err = c.CPUTemperature()
	require.Error(t, err)
}

func TestCPUTempFallback(t *testing.T) {
	missing := func(context.Context) ([]byte, error) {
		return nil, &exec.Error{Name: "vcgencmd", Err: exec.ErrNotFound}
	}
	m := NewMock(MockRanges{Temperature: EnviroRanges.Temperature}, 1)

	lenient := NewCPUTemp(m, false)
	lenient.run = missing
	v, err := lenient.CPUTemperature()
	require.NoError(t, err)
	require.True(t, EnviroRanges.Temperature.Contains(v))

	strict := NewCPUTemp(m, true)
	strict.run = missing
	_, err = strict.CPUTemperature()
	require.ErrorIs(t, err, exec.ErrNotFound)
}

func TestCompensate(t *testing.T) {
	require.Equal(t, 30.0, Compensate(30, 60, 0))
	require.InDelta(t, 20.0, Compensate(30, 52.5, 2.25), 1e-9)
	require.InDelta(t, 30.0, Compensate(30, 30, 2.25), 1e-9)
}

func inputEvent(typ, code uint16, value int32) []byte {
	b := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(b[16:], typ)
	binary.LittleEndian.PutUint16(b[18:], code)
	binary.LittleEndian.PutUint32(b[20:], uint32(value))
	return b
}

func TestJoystickDecodes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(inputEvent(0, 0, 0)) // EV_SYN
	buf.Write(inputEvent(evKey, keyUp, 1))
	buf.Write(inputEvent(evKey, 30, 1)) // KEY_A
	buf.Write(inputEvent(evKey, keyRight, 2))
	buf.Write(inputEvent(evKey, keyEnter, 0))

	j := NewJoystick(io.NopCloser(&buf))
	var got []JoystickEvent
	for {
		ev, err := j.Next()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		got = append(got, ev)
	}
	require.Equal(t, []JoystickEvent{
		{Direction: Up, Action: Pressed},
		{Direction: Right, Action: Held},
		{Direction: Middle, Action: Released},
	}, got)
	require.Equal(t, "middle", Middle.String())
	require.Equal(t, "held", Held.String())
}

func TestJoystickEventsChannel(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(inputEvent(evKey, keyLeft, 1))
	buf.Write(inputEvent(evKey, keyDown, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Direction
	for ev := range NewJoystick(io.NopCloser(&buf)).Events(ctx) {
		got = append(got, ev.Direction)
	}
	require.Equal(t, []Direction{Left, Down}, got)
}

func TestMockStaysInRange(t *testing.T) {
	m := NewMock(EnviroRanges, 42)
	s := MockSuite(m)
	for i := 0; i < 100; i++ {
		temp, _ := s.Climate.Temperature()
		require.True(t, EnviroRanges.Temperature.Contains(temp))
		p, _ := s.Climate.Pressure()
		require.True(t, EnviroRanges.Pressure.Contains(p))
		prox, _ := s.Light.Proximity()
		require.True(t, EnviroRanges.Proximity.Contains(prox))
		g, _ := s.Gas.ReadGas()
		require.True(t, EnviroRanges.Gas.Contains(g.NH3))
		pm, _ := s.Particles.ReadParticles()
		require.True(t, EnviroRanges.Particles.Contains(pm.PM10))
		speed, pcnt := m.Demo()
		require.True(t, EnviroRanges.Speed.Contains(speed))
		require.True(t, EnviroRanges.Percent.Contains(pcnt))
	}
	require.NoError(t, s.Close())
}
