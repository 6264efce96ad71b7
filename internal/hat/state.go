// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hat combines a board's display panel with the display state the
// application loops drive: mode, rotation, progress bar and sleep.
package hat

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/render"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// Settings are the display settings shared by both boards.
type Settings struct {
	Rotation  int
	Mode      int
	ModeMin   int
	ModeMax   int
	Progress  bool
	SleepTime time.Duration
	LowLight  bool
	Density   float64 // sparkle density, 0 selects the board default
}

// Device is what the application loops need from a board.
type Device interface {
	Panel() display.Panel
	Mode() int
	UpdateDisplayMode(dir int) int
	Rotate(dir int) error
	UpdateSleepMode(flags ...bool) error
	Sleeping() bool
	Touch()
	Idle() time.Duration
	SleepTime() time.Duration
	Rotation() int
	Frame() render.Frame
	DisplayAsGraph(s *series.Series, domain *series.Range) error
	DisplayAsText(ss []*series.Series) error
	DisplayProgress(fraction float64) error
	DisplaySparkle() error
	DisplayMessage(msg string) error
	Close() error
}

// state is embedded by both boards.
type state struct {
	mu       sync.Mutex
	panel    display.Panel
	mode     int
	modeMin  int
	modeMax  int
	rotation int
	progress bool
	density  float64
	sleep    time.Duration
	sleeping bool
	on       bool
	touched  time.Time
	now      func() time.Time
	rng      *rand.Rand
	last     render.Frame
	log      *slog.Logger
}

func newState(p display.Panel, s Settings, component string) (*state, error) {
	if s.ModeMax < s.ModeMin {
		return nil, fmt.Errorf("hat: display mode range %d..%d", s.ModeMin, s.ModeMax)
	}
	st := &state{
		panel:    p,
		mode:     min(max(s.Mode, s.ModeMin), s.ModeMax),
		modeMin:  s.ModeMin,
		modeMax:  s.ModeMax,
		progress: s.Progress,
		density:  s.Density,
		sleep:    s.SleepTime,
		on:       true,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		log:      slog.Default().With("component", component),
	}
	st.touched = st.now()
	b := p.Bounds()
	st.last = render.NewFrame(b.Dx(), b.Dy(), render.Background)
	if err := p.SetRotation(s.Rotation); err != nil {
		return nil, err
	}
	st.rotation = s.Rotation
	if err := p.SetLowLight(s.LowLight); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *state) Panel() display.Panel { return s.panel }

func (s *state) Mode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// UpdateDisplayMode steps the mode by dir, wrapping from max to min and
// from min to max, and returns the new mode.
func (s *state) UpdateDisplayMode(dir int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode += dir
	if s.mode > s.modeMax {
		s.mode = s.modeMin
	} else if s.mode < s.modeMin {
		s.mode = s.modeMax
	}
	s.touched = s.now()
	s.log.Debug("display mode", "mode", s.mode)
	return s.mode
}

// Rotate turns the display by dir*90 degrees, wrapping within 0..270. The
// display is switched on unless the board is in sleep mode.
func (s *state) Rotate(dir int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rot := ((s.rotation+dir*90)%360 + 360) % 360
	if err := s.panel.SetRotation(rot); err != nil {
		return err
	}
	s.rotation = rot
	s.touched = s.now()
	if w, h := s.size(); s.last.Width != w || s.last.Height != h {
		s.last = render.NewFrame(w, h, render.Background)
	}
	if !s.sleeping {
		return s.displayOn()
	}
	return nil
}

// Rotation is the current display rotation in degrees.
func (s *state) Rotation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

// UpdateSleepMode turns the display off and enters sleep mode when any flag
// is true, and wakes it when none are.
func (s *state) UpdateSleepMode(flags ...bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range flags {
		if f {
			s.sleeping = true
			return s.displayOff()
		}
	}
	s.sleeping = false
	return s.displayOn()
}

// ToggleSleep flips sleep mode.
func (s *state) ToggleSleep() error {
	return s.UpdateSleepMode(!s.Sleeping())
}

func (s *state) Sleeping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleeping
}

// Touch records user activity and postpones sleep.
func (s *state) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
}

// Idle is the time since the last user activity.
func (s *state) Idle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.touched)
}

// Frame returns the frame last rendered, including while asleep.
func (s *state) Frame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// SleepTime is how long the display may stay idle before it sleeps.
func (s *state) SleepTime() time.Duration { return s.sleep }

func (s *state) DisplayOn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayOn()
}

func (s *state) DisplayOff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayOff()
}

// DisplayBlank clears the panel without changing power.
func (s *state) DisplayBlank() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = render.NewFrame(s.last.Width, s.last.Height, render.Background)
	return s.panel.Clear()
}

// DisplayReset blanks the panel and resets the rotation.
func (s *state) DisplayReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.panel.SetRotation(0); err != nil {
		return err
	}
	s.rotation = 0
	b := s.panel.Bounds()
	s.last = render.NewFrame(b.Dx(), b.Dy(), render.Background)
	return s.panel.Clear()
}

func (s *state) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.panel.Clear(); err != nil {
		s.log.Warn("clear on close", "err", err)
	}
	return s.panel.Close()
}

func (s *state) displayOn() error {
	if s.on {
		return nil
	}
	s.on = true
	return s.panel.SetPower(true)
}

func (s *state) displayOff() error {
	if !s.on {
		return nil
	}
	s.on = false
	return s.panel.SetPower(false)
}

// show sends f to the panel unless sleeping. Callers hold s.mu.
func (s *state) show(f render.Frame) error {
	s.last = f
	if s.sleeping {
		return nil
	}
	return s.panel.Show(f)
}

// size is the panel size at the current rotation. Callers hold s.mu.
func (s *state) size() (int, int) {
	b := s.panel.Bounds()
	return b.Dx(), b.Dy()
}
