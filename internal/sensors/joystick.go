package sensors

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Direction is a Sense HAT joystick direction.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	Middle
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Middle:
		return "middle"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Action is what happened to the stick.
type Action int

const (
	Released Action = iota
	Pressed
	Held
)

func (a Action) String() string {
	switch a {
	case Released:
		return "released"
	case Pressed:
		return "pressed"
	case Held:
		return "held"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// JoystickEvent is one decoded stick event.
type JoystickEvent struct {
	Direction Direction
	Action    Action
}

// Linux input_event on 64-bit: struct timeval (16 bytes), type, code, value.
const (
	inputEventSize = 24
	evKey          = 0x01

	keyEnter = 28
	keyUp    = 103
	keyLeft  = 105
	keyRight = 106
	keyDown  = 108
)

const joystickName = "Raspberry Pi Sense HAT Joystick"

// Joystick decodes Sense HAT stick events from an evdev stream.
type Joystick struct {
	r io.ReadCloser
}

// OpenJoystick finds the Sense HAT joystick input device and opens it.
func OpenJoystick() (*Joystick, error) {
	names, _ := filepath.Glob("/sys/class/input/event*/device/name")
	for _, n := range names {
		b, err := os.ReadFile(n)
		if err != nil || strings.TrimSpace(string(b)) != joystickName {
			continue
		}
		dev := filepath.Join("/dev/input", filepath.Base(filepath.Dir(filepath.Dir(n))))
		f, err := os.Open(dev)
		if err != nil {
			return nil, fmt.Errorf("joystick: open %s: %w", dev, err)
		}
		return NewJoystick(f), nil
	}
	return nil, fmt.Errorf("joystick: %q not found", joystickName)
}

// NewJoystick reads events from r.
func NewJoystick(r io.ReadCloser) *Joystick {
	return &Joystick{r: r}
}

// Next blocks until the next stick event. Non-key events and unknown keys
// are skipped.
func (j *Joystick) Next() (JoystickEvent, error) {
	var buf [inputEventSize]byte
	for {
		if _, err := io.ReadFull(j.r, buf[:]); err != nil {
			return JoystickEvent{}, err
		}
		typ := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))
		if typ != evKey || value < 0 || value > 2 {
			continue
		}
		var d Direction
		switch code {
		case keyUp:
			d = Up
		case keyDown:
			d = Down
		case keyLeft:
			d = Left
		case keyRight:
			d = Right
		case keyEnter:
			d = Middle
		default:
			continue
		}
		return JoystickEvent{Direction: d, Action: Action(value)}, nil
	}
}

// Events streams stick events until ctx is done or the device fails.
// The channel is closed when the stream ends.
func (j *Joystick) Events(ctx context.Context) <-chan JoystickEvent {
	ch := make(chan JoystickEvent)
	go func() {
		defer close(ch)
		for {
			ev, err := j.Next()
			if err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		_ = j.Close()
	}()
	return ch
}

// Close closes the device.
func (j *Joystick) Close() error {
	err := j.r.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
