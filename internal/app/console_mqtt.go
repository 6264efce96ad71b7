package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/relabs-tech/sensor_hats/internal/config"
	"github.com/relabs-tech/sensor_hats/internal/env"
	"github.com/relabs-tech/sensor_hats/internal/mqtt"
)

// bucketColors follows render.DefaultPalette: blue, cyan, green, yellow, red.
var bucketColors = [...]*color.Color{
	color.New(color.FgBlue),
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgRed, color.Bold),
}

var (
	missingColor = color.New(color.FgHiBlack)
	tagColor     = color.New(color.FgMagenta)
)

// console prints every readings and frame message as one line.
type console struct {
	cfg config.MQTTConfig
	out io.Writer
	log *slog.Logger
	mu  sync.Mutex
}

func (c *console) handle(msg mqtt.Message) {
	var line string
	switch msg.Topic {
	case c.cfg.TopicReadings:
		var s env.Sample
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			c.log.Warn("readings unmarshal", "err", err)
			return
		}
		line = formatSample(s)
	case c.cfg.TopicFrame:
		var f env.Frame
		if err := json.Unmarshal(msg.Payload, &f); err != nil {
			c.log.Warn("frame unmarshal", "err", err)
			return
		}
		line = fmt.Sprintf("%s %s mode=%d rotation=%d sleeping=%t %dx%d",
			tagColor.Sprint("[FRAME]"), f.Time.Format("15:04:05"),
			f.Mode, f.Rotation, f.Sleeping, f.Frame.Width, f.Frame.Height)
	default:
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// formatSample renders s as "[SOURCE] hh:mm:ss Label=value unit ...", each
// value coloured by its severity bucket.
func formatSample(s env.Sample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", tagColor.Sprintf("[%s]", strings.ToUpper(s.Source)), s.Time.Format("15:04:05"))
	for _, r := range s.Readings {
		b.WriteByte(' ')
		b.WriteString(r.Label)
		b.WriteByte('=')
		switch {
		case r.Value == nil:
			b.WriteString(missingColor.Sprint("--"))
		case r.Bucket != nil && *r.Bucket >= 0 && *r.Bucket < len(bucketColors):
			b.WriteString(bucketColors[*r.Bucket].Sprintf("%g", *r.Value))
		default:
			fmt.Fprintf(&b, "%g", *r.Value)
		}
		if r.Unit != "" {
			b.WriteString(r.Unit)
		}
	}
	return b.String()
}

// RunConsoleMQTT prints the readings and frames published by the monitors
// to out until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, sub mqtt.Subscriber, out io.Writer) error {
	c := &console{cfg: cfg.MQTT, out: out, log: slog.Default().With("component", "console")}
	for _, topic := range []string{cfg.MQTT.TopicReadings, cfg.MQTT.TopicFrame} {
		if err := sub.Subscribe(ctx, topic, cfg.MQTT.QoS, c.handle); err != nil {
			return err
		}
	}
	<-ctx.Done()
	c.log.Info("shutting down")
	return nil
}
