package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"periph.io/x/conn/v3/gpio"
)

// Plantower PMS5003 particulate sensor on the Enviro+ UART.

const (
	pmsStart1      = 0x42
	pmsStart2      = 0x4d
	pmsFrameLen    = 32
	pmsPayloadLen  = pmsFrameLen - 4
	pmsBaudRate    = 9600
	pmsReadTimeout = 5 * time.Second
)

var errReadTimeout = errors.New("pms5003: no frame before timeout")

// PMS5003 reads particulate frames from the sensor's serial port.
type PMS5003 struct {
	port  io.ReadWriteCloser
	reset gpio.PinOut

	timeout time.Duration
	sleep   func(time.Duration)
}

// OpenPMS5003 opens portName at 9600 8N1. reset may be nil when the reset
// line is not wired.
func OpenPMS5003(portName string, reset gpio.PinOut) (*PMS5003, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              pmsBaudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 1000,
		MinimumReadSize:       0,
	})
	if err != nil {
		return nil, fmt.Errorf("pms5003: open %s: %w", portName, err)
	}
	return NewPMS5003(port, reset), nil
}

// NewPMS5003 wraps an already open port.
func NewPMS5003(port io.ReadWriteCloser, reset gpio.PinOut) *PMS5003 {
	return &PMS5003{port: port, reset: reset, timeout: pmsReadTimeout, sleep: time.Sleep}
}

// ReadParticles reads one frame. A timeout resets the sensor and retries
// once; a second timeout returns ErrParticleTimeout.
func (p *PMS5003) ReadParticles() (ParticleReading, error) {
	r, err := p.readOnce()
	if !errors.Is(err, errReadTimeout) {
		return r, err
	}
	p.sleep(time.Second)
	if err := p.Reset(); err != nil {
		return ParticleReading{}, err
	}
	r, err = p.readOnce()
	if errors.Is(err, errReadTimeout) {
		return ParticleReading{}, ErrParticleTimeout
	}
	return r, err
}

// Reset pulses the reset line low.
func (p *PMS5003) Reset() error {
	if p.reset == nil {
		return nil
	}
	if err := p.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("pms5003: reset: %w", err)
	}
	p.sleep(100 * time.Millisecond)
	if err := p.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("pms5003: reset: %w", err)
	}
	return nil
}

// Close closes the serial port.
func (p *PMS5003) Close() error {
	return p.port.Close()
}

func (p *PMS5003) readOnce() (ParticleReading, error) {
	frame, err := p.readFrame()
	if err != nil {
		return ParticleReading{}, err
	}
	return parsePMSFrame(frame)
}

// readFrame syncs on the two start bytes and reads the rest of the frame.
func (p *PMS5003) readFrame() ([]byte, error) {
	deadline := time.Now().Add(p.timeout)
	var b [1]byte
	matched := 0
	for matched < 2 {
		if time.Now().After(deadline) {
			return nil, errReadTimeout
		}
		n, err := p.port.Read(b[:])
		if errors.Is(err, io.EOF) {
			return nil, errReadTimeout
		}
		if err != nil {
			return nil, fmt.Errorf("pms5003: read: %w", err)
		}
		if n == 0 {
			continue
		}
		switch {
		case matched == 1 && b[0] == pmsStart2:
			matched = 2
		case b[0] == pmsStart1:
			matched = 1
		default:
			matched = 0
		}
	}

	frame := make([]byte, pmsFrameLen)
	frame[0], frame[1] = pmsStart1, pmsStart2
	if _, err := io.ReadFull(p.port, frame[2:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errReadTimeout
		}
		return nil, fmt.Errorf("pms5003: read: %w", err)
	}
	return frame, nil
}

// parsePMSFrame validates a full frame and extracts the standard-particle
// concentrations.
func parsePMSFrame(frame []byte) (ParticleReading, error) {
	if len(frame) != pmsFrameLen {
		return ParticleReading{}, fmt.Errorf("pms5003: frame length %d", len(frame))
	}
	if n := binary.BigEndian.Uint16(frame[2:4]); n != pmsPayloadLen {
		return ParticleReading{}, fmt.Errorf("pms5003: payload length %d", n)
	}
	var sum uint16
	for _, b := range frame[:pmsFrameLen-2] {
		sum += uint16(b)
	}
	if want := binary.BigEndian.Uint16(frame[pmsFrameLen-2:]); sum != want {
		return ParticleReading{}, fmt.Errorf("%w: got 0x%04x, frame says 0x%04x", ErrChecksum, sum, want)
	}
	word := func(i int) float64 { return float64(binary.BigEndian.Uint16(frame[4+2*i:])) }
	return ParticleReading{PM1: word(0), PM25: word(1), PM10: word(2)}, nil
}
