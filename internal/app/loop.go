package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/env"
	"github.com/relabs-tech/sensor_hats/internal/hat"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// maxLoopWait bounds how often the progress bar and sleep mode are updated.
const maxLoopWait = time.Second

// monitor is one application running on the shared loop.
type monitor interface {
	// collect reads the sensors and appends to the series.
	collect(ctx context.Context, now time.Time) error
	// render draws the given display mode.
	render(mode int) error
	// snapshots returns the series published with each upload.
	snapshots() []series.Snapshot
}

// loop samples every io.wait, renders the current display mode and
// publishes readings and the display frame when an upload is due. The first
// upload is due after io.delay, later ones every io.freq.
type loop struct {
	cfg      *config.Config
	dev      hat.Device
	pub      mqtt.Publisher
	app      monitor
	source   string
	deviceID string
	log      *slog.Logger
	now      func() time.Time

	lastUpload  time.Time
	uploadDelay time.Duration
	uploads     int
	nextSample  time.Time
}

func newLoop(cfg *config.Config, dev hat.Device, pub mqtt.Publisher, app monitor, source string) *loop {
	return &loop{
		cfg:      cfg,
		dev:      dev,
		pub:      pub,
		app:      app,
		source:   source,
		deviceID: env.DeviceID(source + "-"),
		log:      slog.Default().With("component", source),
		now:      time.Now,
	}
}

// run loops until ctx is done or the configured number of uploads is reached.
func (l *loop) run(ctx context.Context) error {
	l.start()
	t := time.NewTicker(min(l.cfg.IO.Wait, maxLoopWait))
	defer t.Stop()

	l.log.Info("-- START Data Logging --", "wait", l.cfg.IO.Wait, "freq", l.cfg.IO.Freq, "uploads", l.cfg.IO.Uploads)
	defer l.log.Info("-- END Data Logging --", "uploads", l.uploads)
	for {
		if l.step(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (l *loop) start() {
	l.lastUpload = l.now()
	l.uploadDelay = l.cfg.IO.Delay
	l.nextSample = time.Time{}
}

// step runs one loop iteration and reports whether the loop is done.
func (l *loop) step(ctx context.Context) bool {
	now := l.now()
	sleep := l.dev.SleepTime()
	if err := l.dev.UpdateSleepMode(
		sleep > 0 && l.dev.Idle() > sleep, // time to sleep?
		l.cfg.Device.NoLED,
		l.dev.Sleeping(), // already asleep?
	); err != nil {
		l.log.Warn("sleep mode", "err", err)
	}
	l.progress(now)

	if now.Before(l.nextSample) {
		return false
	}
	l.nextSample = now.Add(l.cfg.IO.Wait)
	return l.sample(ctx, now)
}

func (l *loop) sample(ctx context.Context, now time.Time) bool {
	if err := l.app.collect(ctx, now); err != nil {
		l.log.Warn("collect", "err", err)
	}
	if err := l.app.render(l.dev.Mode()); err != nil {
		l.log.Warn("render", "mode", l.dev.Mode(), "err", err)
	}

	done := false
	if now.Sub(l.lastUpload) >= l.uploadDelay {
		if err := l.upload(ctx, now); err != nil {
			l.log.Error("upload", "err", err)
		} else {
			l.uploads++
			l.uploadDelay = l.cfg.IO.Freq
			l.log.Info("uploaded", "count", l.uploads)
		}
		l.lastUpload = now
		done = l.cfg.IO.Uploads > 0 && l.uploads >= l.cfg.IO.Uploads
	}
	l.progress(now)
	return done
}

func (l *loop) progress(now time.Time) {
	frac := 1.0
	if l.uploadDelay > 0 {
		frac = float64(now.Sub(l.lastUpload)) / float64(l.uploadDelay)
	}
	if err := l.dev.DisplayProgress(frac); err != nil {
		l.log.Warn("progress", "err", err)
	}
}

func (l *loop) upload(ctx context.Context, now time.Time) error {
	m := l.cfg.MQTT
	sample := env.NewSample(l.source, l.deviceID, now, l.cfg.IO.Rounding, l.app.snapshots())
	if err := mqtt.PublishJSON(ctx, l.pub, m.TopicReadings, m.QoS, m.Retain, sample); err != nil {
		return err
	}
	frame := env.Frame{
		Source:   l.source,
		Time:     now,
		Mode:     l.dev.Mode(),
		Rotation: l.dev.Rotation(),
		Sleeping: l.dev.Sleeping(),
		Frame:    l.dev.Frame(),
	}
	return mqtt.PublishJSON(ctx, l.pub, m.TopicFrame, m.QoS, m.Retain, frame)
}

// graph draws s scaled to the min and max of the whole series, which keeps
// the scale steady while the visible window scrolls.
func graph(dev hat.Device, s *series.Series) error {
	if r, ok := s.MinMax(); ok {
		return dev.DisplayAsGraph(s, &r)
	}
	return dev.DisplayAsGraph(s, nil)
}
