// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/env"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
	"github.com/relabs-tech/sensor_hats/internal/render"
)

// mirror shows the frames published by a monitor on a local panel,
// scaled to fit. An 8x8 Sense HAT frame fills an Enviro+ LCD and a
// 160x80 Enviro+ frame is shrunk onto the LED matrix.
type mirror struct {
	panel display.Panel
	log   *slog.Logger
}

func (m *mirror) handle(msg mqtt.Message) {
	var f env.Frame
	if err := json.Unmarshal(msg.Payload, &f); err != nil {
		m.log.Warn("frame unmarshal", "err", err)
		return
	}
	if err := m.show(f); err != nil {
		m.log.Warn("show", "err", err)
	}
}

func (m *mirror) show(f env.Frame) error {
	if f.Sleeping || len(f.Frame.Pix) != f.Frame.Width*f.Frame.Height || len(f.Frame.Pix) == 0 {
		return m.panel.Clear()
	}
	b := m.panel.Bounds()
	if f.Frame.Bounds() == b {
		return m.panel.Show(f.Frame)
	}
	dst := image.NewRGBA(b)
	draw.NearestNeighbor.Scale(dst, b, f.Frame, f.Frame.Bounds(), draw.Src, nil)
	return m.panel.Show(render.FromImage(dst))
}

// RunMirror subscribes to the frame topic and mirrors every frame on panel
// until ctx is done.
func RunMirror(ctx context.Context, cfg *config.Config, sub mqtt.Subscriber, panel display.Panel) error {
	m := &mirror{panel: panel, log: slog.Default().With("component", "mirror", "panel", panel.String())}
	if err := panel.SetLowLight(cfg.Device.LowLight); err != nil {
		return err
	}
	if err := sub.Subscribe(ctx, cfg.MQTT.TopicFrame, cfg.MQTT.QoS, m.handle); err != nil {
		return err
	}
	m.log.Info("mirroring", "topic", cfg.MQTT.TopicFrame)
	<-ctx.Done()
	return panel.Clear()
}
